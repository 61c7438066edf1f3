package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/pipeline"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

type stubStore struct {
	runs map[string]*contracts.PipelineRun
}

func (s *stubStore) SaveRun(context.Context, *contracts.PipelineRun) error { return nil }

func (s *stubStore) GetRun(_ context.Context, id string) (*contracts.PipelineRun, error) {
	if r, ok := s.runs[id]; ok {
		return r, nil
	}
	return nil, pipeline.ErrNoRuns
}

func (s *stubStore) LatestRun(context.Context) (*contracts.PipelineRun, error) {
	for _, r := range s.runs {
		return r, nil
	}
	return nil, pipeline.ErrNoRuns
}

func testServer(runs ...*contracts.PipelineRun) *httptest.Server {
	store := &stubStore{runs: make(map[string]*contracts.PipelineRun)}
	for _, r := range runs {
		store.runs[r.ID] = r
	}
	handler := NewRunHandler(store, logger.NewNop())
	return httptest.NewServer(NewRouter(handler, logger.NewNop()))
}

func finishedRun() *contracts.PipelineRun {
	run := contracts.NewPipelineRun("20260828-213000", "full", time.Now())
	run.Status = contracts.RunCompleted
	run.Regime = contracts.RegimeAssessment{State: contracts.RegimeCalm, CrashRisk: 15}
	run.Scores = []contracts.OpportunityScore{
		{Symbol: "BHP.AX", Sector: "Materials", Composite: 78, Signal: contracts.SignalBuy},
	}
	return run
}

func TestHealth(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetLatestRun(t *testing.T) {
	srv := testServer(finishedRun())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload contracts.ReportPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "20260828-213000", payload.RunID)
	assert.Equal(t, contracts.RunCompleted, payload.Status)
	require.Len(t, payload.Scores, 1)
	assert.Equal(t, contracts.SignalBuy, payload.Scores[0].Signal)
}

func TestGetRunByID(t *testing.T) {
	srv := testServer(finishedRun())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/20260828-213000")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/runs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRegime(t *testing.T) {
	srv := testServer(finishedRun())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/regime")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RunID  string                     `json:"run_id"`
		Regime contracts.RegimeAssessment `json:"regime"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, contracts.RegimeCalm, body.Regime.State)
}

func TestNoRunsIs404(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
