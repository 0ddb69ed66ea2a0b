package predict

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/nats-io/nats.go"

	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
	"ecgrisk/ports"
)

// Requester is the request/reply half of *nats.Conn.
type Requester interface {
	RequestWithContext(ctx context.Context, subject string, data []byte) (*nats.Msg, error)
}

// NATSPredictor asks a remote model over NATS request/reply.
type NATSPredictor struct {
	conn    Requester
	subject string
}

var _ ports.Predictor = (*NATSPredictor)(nil)

// NewNATSPredictor sends requests on subject.
func NewNATSPredictor(conn Requester, subject string) *NATSPredictor {
	return &NATSPredictor{conn: conn, subject: subject}
}

func (p *NATSPredictor) Predict(ctx context.Context, modelName string, sig signal.Signal) (model.Prediction, error) {
	body, err := json.Marshal(newRequest(modelName, sig))
	if err != nil {
		return model.Prediction{}, errors.Wrap(err, "marshal predict request")
	}
	msg, err := p.conn.RequestWithContext(ctx, p.subject, body)
	if err != nil {
		return model.Prediction{}, errors.ExternalServiceError("nats predictor", err)
	}
	return decodeResponse(msg.Data)
}

// ServeNATS answers predict requests on subject with p until the returned
// subscription is drained.
func ServeNATS(nc *nats.Conn, subject string, p ports.Predictor) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := msg.Respond(Answer(context.Background(), p, msg.Data)); err != nil {
			log.Printf("[Predictor] Failed to respond on %s: %v", subject, err)
		}
	})
}

// Answer decodes a request, runs p and encodes the response.
func Answer(ctx context.Context, p ports.Predictor, data []byte) []byte {
	resp, _ := answer(ctx, p, data)
	out, _ := json.Marshal(resp)
	return out
}

// answer also reports the HTTP status matching the outcome.
func answer(ctx context.Context, p ports.Predictor, data []byte) (Response, int) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Response{Error: "invalid request: " + err.Error()}, http.StatusBadRequest
	}
	pred, err := p.Predict(ctx, req.Model, req.signal())
	if err != nil {
		return Response{Error: err.Error()}, errors.HTTPStatus(err)
	}
	return Response{Prediction: &pred}, http.StatusOK
}

func decodeResponse(data []byte) (model.Prediction, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return model.Prediction{}, errors.Wrap(err, "decode predict response")
	}
	if resp.Error != "" {
		return model.Prediction{}, errors.New(errors.CodeExternalService, resp.Error)
	}
	if resp.Prediction == nil {
		return model.Prediction{}, errors.New(errors.CodeExternalService, "empty predict response")
	}
	return *resp.Prediction, nil
}
