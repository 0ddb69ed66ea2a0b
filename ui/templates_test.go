package ui

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateFuncs(t *testing.T) {
	params := templateFuncs["params"].(func(int) string)
	assert.Equal(t, "n/a", params(0))
	assert.Equal(t, "870k", params(870_000))
	assert.Equal(t, "3.9M", params(3_870_000))

	risk := templateFuncs["riskClass"].(func(float64) string)
	assert.Equal(t, "risk-high", risk(0.5))
	assert.Equal(t, "risk-low", risk(0.49))
}

func TestParseTemplatesReportsErrors(t *testing.T) {
	_, err := parseTemplates(fstest.MapFS{"templates/bad.html": {Data: []byte("{{nope}}")}})
	assert.Error(t, err)

	tmpl, err := parseTemplates(fstest.MapFS{"templates/ok.html": {Data: []byte(`{{pct .}}`)}})
	require.NoError(t, err)
	assert.NotNil(t, tmpl.Lookup("ok.html"))
}
