package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c, ok := Lookup(DefaultModel)
	require.True(t, ok)
	assert.Len(t, c.Metrics(), len(MetricNames))

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestAUCInterval(t *testing.T) {
	iv, err := AUCInterval(0.9, 100, 100, 0.95)
	require.NoError(t, err)
	assert.Less(t, iv.Lower, 0.9)
	assert.Greater(t, iv.Upper, 0.9)
	// Hanley-McNeil SE for 0.9 with 100/100 cases is about 0.0226
	assert.InDelta(t, 0.9-1.96*0.0226, iv.Lower, 0.005)

	wide, err := AUCInterval(0.9, 20, 20, 0.95)
	require.NoError(t, err)
	assert.Greater(t, wide.Upper-wide.Lower, iv.Upper-iv.Lower)
}

func TestAUCIntervalRejectsBadInput(t *testing.T) {
	_, err := AUCInterval(1.0, 10, 10, 0.95)
	assert.Error(t, err)
	_, err = AUCInterval(0.8, 0, 10, 0.95)
	assert.Error(t, err)
	_, err = AUCInterval(0.8, 10, 10, 1.5)
	assert.Error(t, err)
}

func TestCurvesShape(t *testing.T) {
	tc := Curves("Transformer", 40, 7)
	require.Len(t, tc.Epochs, 40)
	assert.Equal(t, 1.0, tc.Epochs[0])
	assert.Greater(t, tc.TrainLoss[0], tc.TrainLoss[39])
	assert.Less(t, tc.ValAcc[0], tc.ValAcc[39])

	again := Curves("Transformer", 40, 7)
	assert.Equal(t, tc, again)
}
