package contracts

import "time"

// Pipeline phase definitions (SSOT)
// 모든 로그, 체크포인트, DB row에서 이 상수를 사용해야 함
//
// Phase order:
//   SentimentMonitoring / RegimeAssessment (independent, both before prediction)
//   → StockScanning → EventRiskCheck → EnsemblePrediction
//   → OpportunityScoring → ReportGeneration

// Phase represents a pipeline phase
type Phase string

const (
	PhaseSentiment  Phase = "SENTIMENT_MONITORING"
	PhaseRegime     Phase = "REGIME_ASSESSMENT"
	PhaseScanning   Phase = "STOCK_SCANNING"
	PhaseEventRisk  Phase = "EVENT_RISK_CHECK"
	PhasePrediction Phase = "ENSEMBLE_PREDICTION"
	PhaseScoring    Phase = "OPPORTUNITY_SCORING"
	PhaseReport     Phase = "REPORT_GENERATION"
)

// AllPhases returns the phases in execution order
func AllPhases() []Phase {
	return []Phase{
		PhaseSentiment,
		PhaseRegime,
		PhaseScanning,
		PhaseEventRisk,
		PhasePrediction,
		PhaseScoring,
		PhaseReport,
	}
}

// PhaseStatus tracks one phase's lifecycle
type PhaseStatus string

const (
	PhasePending   PhaseStatus = "PENDING"
	PhaseRunning   PhaseStatus = "RUNNING"
	PhaseCompleted PhaseStatus = "COMPLETED"
	PhaseFailed    PhaseStatus = "FAILED"
	PhaseSkipped   PhaseStatus = "SKIPPED"
)

// RunStatus is the overall outcome of a pipeline run
type RunStatus string

const (
	RunRunning      RunStatus = "RUNNING"
	RunCompleted    RunStatus = "COMPLETED"
	RunWithWarnings RunStatus = "COMPLETED_WITH_WARNINGS"
	RunFailed       RunStatus = "FAILED"
)

// ExitCode maps the run status to the CLI exit code contract
func (s RunStatus) ExitCode() int {
	switch s {
	case RunCompleted:
		return 0
	case RunWithWarnings:
		return 1
	default:
		return 2
	}
}

// RunError is one entry of the run's error log. Every fallback use and
// every skipped symbol lands here so report consumers can tell a real
// prediction from a degraded one.
type RunError struct {
	Phase   Phase     `json:"phase"`
	Symbol  string    `json:"symbol,omitempty"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal"`
	At      time.Time `json:"at"`
}

// Well-known error codes surfaced in the run log
const (
	ErrCodeNoEligibleStocks = "NO_ELIGIBLE_STOCKS"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeModelFallback    = "MODEL_FALLBACK"
	ErrCodeRegimeUnknown    = "REGIME_UNKNOWN"
	ErrCodeSentimentStale   = "SENTIMENT_STALE"
	ErrCodePhaseFailed      = "PHASE_FAILED"
	ErrCodeCancelled        = "CANCELLED"
)

// PipelineRun is the state of one nightly run, mutated only by the
// orchestrator and finalized into the report payload.
type PipelineRun struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Mode      string    `json:"mode"` // full | test
	Status    RunStatus `json:"status"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	// StrategyHash ties the run to the exact strategy config that
	// produced it
	StrategyHash string `json:"strategy_hash,omitempty"`

	Phases map[Phase]PhaseStatus `json:"phases"`

	Regime    RegimeAssessment   `json:"regime"`
	Sentiment IndexSentiment     `json:"sentiment"`
	Scores    []OpportunityScore `json:"scores"`
	Sectors   []SectorSummary    `json:"sectors"`
	Errors    []RunError         `json:"errors"`
}

// NewPipelineRun creates a run with every phase pending
func NewPipelineRun(id, mode string, date time.Time) *PipelineRun {
	phases := make(map[Phase]PhaseStatus, len(AllPhases()))
	for _, p := range AllPhases() {
		phases[p] = PhasePending
	}
	return &PipelineRun{
		ID:        id,
		Date:      date,
		Mode:      mode,
		Status:    RunRunning,
		StartedAt: time.Now(),
		Phases:    phases,
	}
}

// RecordError appends an entry to the run's error log
func (r *PipelineRun) RecordError(phase Phase, symbol, code, message string, fatal bool) {
	r.Errors = append(r.Errors, RunError{
		Phase:   phase,
		Symbol:  symbol,
		Code:    code,
		Message: message,
		Fatal:   fatal,
		At:      time.Now(),
	})
}

// HasWarnings reports whether any non-fatal error was recorded
func (r *PipelineRun) HasWarnings() bool {
	for _, e := range r.Errors {
		if !e.Fatal {
			return true
		}
	}
	return false
}

// ReportPayload is the structured object handed to the external report
// renderer/dashboard/notifier. The core never formats HTML or sends mail.
type ReportPayload struct {
	RunID       string             `json:"run_id"`
	Date        time.Time          `json:"date"`
	Mode        string             `json:"mode"`
	Status      RunStatus          `json:"status"`
	GeneratedAt time.Time          `json:"generated_at"`
	Regime      RegimeAssessment   `json:"regime"`
	Sentiment   IndexSentiment     `json:"sentiment"`
	Scores      []OpportunityScore `json:"scores"`
	Sectors     []SectorSummary    `json:"sectors"`
	Errors      []RunError         `json:"errors"`
}
