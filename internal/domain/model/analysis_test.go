package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlassay/urlassay/internal/domain/event"
	"github.com/urlassay/urlassay/internal/domain/model"
	"github.com/urlassay/urlassay/internal/domain/valueobject"
)

func TestNewAnalysis(t *testing.T) {
	a, err := model.NewAnalysis("https://example.com/")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID())
	assert.Equal(t, "https://example.com/", a.URL())
	assert.True(t, a.RiskLevel().Equal(valueobject.RiskLevelLow))
	assert.Empty(t, a.Events())

	_, err = model.NewAnalysis("")
	assert.Error(t, err)
}

func TestAssess_RejectsOutOfRangeScore(t *testing.T) {
	a, err := model.NewAnalysis("https://example.com/")
	require.NoError(t, err)

	assert.Error(t, a.Assess(-0.1, nil, "", false))
	assert.Error(t, a.Assess(1.1, nil, "", false))
}

func TestAssess_EmitsAnalysisCompleted(t *testing.T) {
	a, err := model.NewAnalysis("https://example.com/")
	require.NoError(t, err)

	require.NoError(t, a.Assess(0.2, nil, "low risk", true))

	assert.InDelta(t, 0.2, a.RiskScore(), 1e-9)
	assert.True(t, a.RiskLevel().Equal(valueobject.RiskLevelLow))
	assert.True(t, a.Degraded())
	assert.False(t, a.AnalyzedAt().IsZero())

	evts := a.ClearEvents()
	require.Len(t, evts, 1)
	completed, ok := evts[0].(event.AnalysisCompleted)
	require.True(t, ok)
	assert.Equal(t, a.ID(), completed.AnalysisID)
	assert.Equal(t, "low", completed.RiskLevel)
	assert.True(t, completed.Degraded)
}

func TestAssess_EmitsHighRiskDetected(t *testing.T) {
	a, err := model.NewAnalysis("https://evil.example/")
	require.NoError(t, err)

	factors := []model.RiskFactor{
		{Type: "insecure-protocol", RawScore: 1.0, Weight: 0.08},
		{Type: "reputation", RawScore: 0.9, Weight: 0.5},
		{Type: "ai-judgment", RawScore: 0.8, Weight: 0.4},
	}
	require.NoError(t, a.Assess(0.85, factors, "high risk", false))

	evts := a.ClearEvents()
	require.Len(t, evts, 2)

	high, ok := evts[1].(event.HighRiskDetected)
	require.True(t, ok)
	// Top factors by weighted contribution: reputation (0.45), ai-judgment (0.32).
	assert.Equal(t, []string{"reputation", "ai-judgment"}, high.TopFactors)
}

func TestRiskFactorContribution(t *testing.T) {
	f := model.RiskFactor{Type: "x", RawScore: 0.5, Weight: 0.2}
	assert.InDelta(t, 0.1, f.Contribution(), 1e-9)
}
