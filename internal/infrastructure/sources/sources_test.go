package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReputation_HeuristicFlags(t *testing.T) {
	src := NewReputationSource("", "", nil)

	tests := []struct {
		name    string
		domain  string
		minimum float64
		maximum float64
	}{
		{"plain domain", "example.com", 0.0, 0.2},
		{"known good host", "code.jquery.com", 0.0, 0.05},
		{"abuse tld", "grab-free-prizes.xyz", 0.4, 0.6},
		{"dga subdomain", "xk9qz2vw7mh4.example.com", 0.4, 0.6},
		{"abuse tld and dga", "xk9qz2vw7mh4.prizes.tk", 0.7, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := src.Lookup(context.Background(), tt.domain)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, payload.RiskScore, tt.minimum)
			assert.LessOrEqual(t, payload.RiskScore, tt.maximum)
		})
	}
}

func TestReputation_RemoteVerdictWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		assert.Equal(t, "evil.example", r.URL.Query().Get("domain"))
		_ = json.NewEncoder(w).Encode(map[string]any{"score": 0.95, "summary": "listed on blocklist"})
	}))
	defer server.Close()

	src := NewReputationSource(server.URL, "sekrit", nil)
	payload, err := src.Lookup(context.Background(), "evil.example")

	require.NoError(t, err)
	assert.Equal(t, 0.95, payload.RiskScore)
	assert.Equal(t, "listed on blocklist", payload.Summary)
}

func TestReputation_RemoteFailureIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	src := NewReputationSource(server.URL, "", nil)
	_, err := src.Lookup(context.Background(), "example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestShannonEntropy(t *testing.T) {
	assert.InDelta(t, 0.0, shannonEntropy("aaaa"), 0.001)
	assert.Greater(t, shannonEntropy("xk9qz2vw7mh4"), dgaEntropyThreshold)
	assert.Less(t, shannonEntropy("www"), 1.0)
}

func TestParseCreationDate(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   string
		ok     bool
	}{
		{
			"verisign dialect",
			"Domain Name: EXAMPLE.COM\n   Creation Date: 1995-08-14T04:00:00Z\n",
			"1995-08-14",
			true,
		},
		{
			"legacy dialect",
			"created: 2019.03.07\n",
			"2019-03-07",
			true,
		},
		{
			"space separated with zone",
			"Registered on: 2021-11-02 09:30:00 UTC\n",
			"2021-11-02",
			true,
		},
		{
			"no creation line",
			"Domain Name: EXAMPLE.COM\nRegistrar: Example Registrar\n",
			"",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, ok := parseCreationDate(tt.record)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, created.Format("2006-01-02"))
			}
		})
	}
}

func TestReferralServer(t *testing.T) {
	record := "domain: COM\nrefer: whois.verisign-grs.com\n"
	assert.Equal(t, "whois.verisign-grs.com", referralServer(record))
	assert.Equal(t, "", referralServer("domain: COM\n"))
}

func TestAgeRisk(t *testing.T) {
	day := 24 * time.Hour

	score, _ := ageRisk(5 * day)
	assert.Equal(t, 0.9, score)

	score, _ = ageRisk(90 * day)
	assert.Equal(t, 0.6, score)

	score, _ = ageRisk(200 * day)
	assert.Equal(t, 0.4, score)

	score, _ = ageRisk(2 * 365 * day)
	assert.Equal(t, 0.2, score)

	score, bracket := ageRisk(10 * 365 * day)
	assert.Equal(t, 0.05, score)
	assert.Equal(t, "established", bracket)
}

func TestAIJudge_ParsesVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "suspicious.example", req.Messages[1].Content)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": "Here is my assessment:\n{\"risk_score\": 0.72, \"summary\": \"name mimics a bank\"}",
				}},
			},
		})
	}))
	defer server.Close()

	src := NewAIJudgeSource(server.URL, "test-model", "key", nil)
	payload, err := src.Lookup(context.Background(), "suspicious.example")

	require.NoError(t, err)
	assert.Equal(t, 0.72, payload.RiskScore)
	assert.Equal(t, "name mimics a bank", payload.Summary)
}

func TestAIJudge_Misconfigured(t *testing.T) {
	src := NewAIJudgeSource("", "", "", nil)
	_, err := src.Lookup(context.Background(), "example.com")
	assert.Error(t, err)
}

func TestParseVerdict_NoJSON(t *testing.T) {
	_, err := parseVerdict("I cannot assess this domain.")
	assert.Error(t, err)
}

func TestStubSource_Deterministic(t *testing.T) {
	src := NewStubSource("ai-judgment")

	first, err := src.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	second, err := src.Lookup(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.GreaterOrEqual(t, first.RiskScore, 0.0)
	assert.LessOrEqual(t, first.RiskScore, 0.5)

	// Different source IDs disagree on the same domain.
	other, err := NewStubSource("reputation").Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first.RiskScore, other.RiskScore)
}

func TestStubSource_EmptyDomain(t *testing.T) {
	_, err := NewStubSource("reputation").Lookup(context.Background(), "")
	assert.Error(t, err)
}
