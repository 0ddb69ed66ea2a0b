package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
	"ecgrisk/ports"
)

// HTTPPredictor posts JSON to <BaseURL>/predict.
type HTTPPredictor struct {
	BaseURL string
	Client  *http.Client
}

var _ ports.Predictor = (*HTTPPredictor)(nil)

// NewHTTPPredictor creates a client with the given request timeout.
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}
}

func (p *HTTPPredictor) Predict(ctx context.Context, modelName string, sig signal.Signal) (model.Prediction, error) {
	raw, err := json.Marshal(newRequest(modelName, sig))
	if err != nil {
		return model.Prediction{}, errors.Wrap(err, "marshal predict request")
	}

	url := strings.TrimRight(p.BaseURL, "/") + "/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return model.Prediction{}, errors.Wrap(err, "build predict request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return model.Prediction{}, errors.ExternalServiceError("http predictor", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Prediction{}, errors.ExternalServiceError("http predictor", err)
	}
	if resp.StatusCode != http.StatusOK {
		var r Response
		if json.Unmarshal(body, &r) == nil && r.Error != "" {
			return model.Prediction{}, errors.New(errors.CodeExternalService, r.Error)
		}
		return model.Prediction{}, errors.New(errors.CodeExternalService, fmt.Sprintf("predictor returned %s", resp.Status))
	}
	return decodeResponse(body)
}

// Handler serves POST /predict and GET /healthz on a chi router.
func Handler(p ports.Predictor) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/predict", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, 8<<20))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
			return
		}
		resp, status := answer(req.Context(), p, body)
		writeJSON(w, status, resp)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
