package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecgrisk/domain/core"

	"ecgrisk/internal/config"
	"ecgrisk/internal/predict"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestInitInMemory(t *testing.T) {
	c, err := New(config.Default())
	require.NoError(t, err)
	require.NoError(t, c.Init())
	defer c.Close(context.Background())

	assert.IsType(t, &predict.Mock{}, c.Predictor)
	require.NotNil(t, c.Sessions)
	require.NotNil(t, c.UI)

	patients, err := c.PatientRepo.List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, patients)

	s, err := c.Sessions.Create(context.Background(), "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c.OpsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ecgrisk_sessions 1\n")

	require.NoError(t, c.Sessions.Close(context.Background(), s.ID))
	for _, u := range c.Usage.Summary().Sessions {
		assert.NotEqual(t, s.ID, u.SessionID)
	}
}

func TestInitPredictorModes(t *testing.T) {
	cfg := config.Default()
	cfg.Predictor.Mode = config.PredictorHTTP
	cfg.Predictor.URL = "http://localhost:9000"
	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.initPredictor())
	assert.IsType(t, &predict.HTTPPredictor{}, c.Predictor)

	cfg = config.Default()
	cfg.Predictor.Mode = config.PredictorNATS
	c, err = New(cfg)
	require.NoError(t, err)
	err = c.Init()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "NATS"))
}

func TestInitWithNilConnections(t *testing.T) {
	c, err := New(config.Default())
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
	assert.Error(t, c.InitWithNATS(nil))
}

func TestInitWithPatientsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,lvef,risk\nx-1,Imported,35,0.7\n"), 0o644))

	cfg := config.Default()
	cfg.Database.PatientsFile = path
	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Init())
	defer c.Close(context.Background())

	patients, err := c.PatientRepo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, core.PatientID("x-1"), patients[0].ID)

	cfg.Database.PatientsFile = filepath.Join(t.TempDir(), "missing.csv")
	c, err = New(cfg)
	require.NoError(t, err)
	assert.Error(t, c.Init())
}
