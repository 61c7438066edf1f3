package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/predict"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/scanner"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/scoring"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// ErrLocked is returned when another overnight run holds the run lock
var ErrLocked = fmt.Errorf("another pipeline run is in progress")

// SentimentObserver produces the run's index sentiment
type SentimentObserver interface {
	Observe(ctx context.Context) contracts.IndexSentiment
}

// RegimeAssessor produces the run's regime assessment
type RegimeAssessor interface {
	Assess(ctx context.Context) (contracts.RegimeAssessment, error)
}

// StockScanner builds the candidate list
type StockScanner interface {
	Scan(ctx context.Context, universe *contracts.Universe) (*scanner.Result, error)
}

// Predictor runs the ensemble over the candidates
type Predictor interface {
	PredictAll(ctx context.Context, candidates []contracts.StockCandidate, run predict.RunContext) ([]contracts.PredictionResult, error)
}

// BetaSource primes reference series once and attributes per stock
type BetaSource interface {
	Prime(ctx context.Context) error
	Betas(candidate contracts.StockCandidate) contracts.Betas
}

// Locker guards against concurrent overnight runs
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Orchestrator drives the nightly phase state machine.
// ⭐ SSOT: 파이프라인 조율은 여기서만
//
// Phase failures are caught and substituted, never propagated as a
// pipeline abort; only phase exhaustion (zero eligible stocks) or
// cancellation fails the run.
type Orchestrator struct {
	sentiment SentimentObserver
	regime    RegimeAssessor
	scanner   StockScanner
	predictor Predictor
	betas     BetaSource
	scorer    *scoring.Scorer
	events    *scoring.EventCalendar // nil: phase is skipped
	store     RunStore
	lock      Locker
	universe  contracts.Universe
	cfg       *strategy.Config
	logger    *logger.Logger
	now       func() time.Time
	newID     func(time.Time) string
}

// Deps bundles the orchestrator's collaborators for construction
type Deps struct {
	Sentiment SentimentObserver
	Regime    RegimeAssessor
	Scanner   StockScanner
	Predictor Predictor
	Betas     BetaSource
	Scorer    *scoring.Scorer
	Events    *scoring.EventCalendar
	Store     RunStore
	Lock      Locker
	Universe  contracts.Universe
	Config    *strategy.Config
}

// eventRiskHorizon is how far ahead the calendar is inspected
const eventRiskHorizon = 7 * 24 * time.Hour

// NewOrchestrator wires the phase components explicitly
func NewOrchestrator(deps Deps, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		sentiment: deps.Sentiment,
		regime:    deps.Regime,
		scanner:   deps.Scanner,
		predictor: deps.Predictor,
		betas:     deps.Betas,
		scorer:    deps.Scorer,
		events:    deps.Events,
		store:     deps.Store,
		lock:      deps.Lock,
		universe:  deps.Universe,
		cfg:       deps.Config,
		logger:    log.Component("pipeline"),
		now:       time.Now,
		newID:     func(t time.Time) string { return t.Format("20060102-150405") },
	}
}

// Run executes one overnight run end to end and returns the finalized
// run state. The run state is always returned, even on failure, so the
// caller can derive the exit code and the persisted record is complete.
func (o *Orchestrator) Run(ctx context.Context, mode string) (*contracts.PipelineRun, error) {
	acquired, err := o.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrLocked
	}
	defer func() {
		if err := o.lock.Release(context.WithoutCancel(ctx)); err != nil {
			o.logger.WithError(err).Warn("Run lock release failed")
		}
	}()

	startedAt := o.now()
	run := contracts.NewPipelineRun(o.newID(startedAt), mode, startedAt)
	run.StartedAt = startedAt

	if hash, err := strategy.Hash(o.cfg); err != nil {
		o.logger.WithError(err).Warn("Strategy hash failed, run not tied to config")
	} else {
		run.StrategyHash = hash
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"mode":   mode,
	}).Info("Pipeline run started")

	candidates := o.upstreamPhases(ctx, run)

	// Scanning is the one phase with no substitute: nothing eligible
	// means nothing to predict, score or report
	if run.Phases[contracts.PhaseScanning] == contracts.PhaseFailed || len(candidates) == 0 {
		o.abort(ctx, run)
		return run, nil
	}

	eventRisk := o.runEventRisk(run)
	predictions := o.runPrediction(ctx, run, candidates)
	if predictions == nil {
		o.abort(ctx, run)
		return run, nil
	}

	o.runScoring(ctx, run, candidates, predictions, eventRisk)
	o.runReport(ctx, run)

	o.finalize(ctx, run)
	return run, nil
}

// upstreamPhases runs sentiment and regime concurrently (neither
// depends on the other), then the scan. Returns the candidate list.
// PipelineRun is not safe for concurrent mutation, so the goroutines
// only collect their results; all run state is folded in here after
// both have finished.
func (o *Orchestrator) upstreamPhases(ctx context.Context, run *contracts.PipelineRun) []contracts.StockCandidate {
	run.Phases[contracts.PhaseSentiment] = contracts.PhaseRunning
	run.Phases[contracts.PhaseRegime] = contracts.PhaseRunning

	var (
		wg         sync.WaitGroup
		sent       contracts.IndexSentiment
		assessment contracts.RegimeAssessment
		regimeErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sent = o.sentiment.Observe(ctx)
	}()
	go func() {
		defer wg.Done()
		assessment, regimeErr = o.regime.Assess(ctx)
	}()
	wg.Wait()

	o.applySentiment(run, sent)
	o.applyRegime(run, assessment, regimeErr)
	o.checkpoint(ctx, run)

	return o.runScanning(ctx, run)
}

func (o *Orchestrator) applySentiment(run *contracts.PipelineRun, s contracts.IndexSentiment) {
	run.Sentiment = s
	if s.Fallback {
		run.RecordError(contracts.PhaseSentiment, "", contracts.ErrCodeSentimentStale,
			"futures gap unavailable, neutral bias substituted", false)
	}

	run.Phases[contracts.PhaseSentiment] = contracts.PhaseCompleted
}

func (o *Orchestrator) applyRegime(run *contracts.PipelineRun, assessment contracts.RegimeAssessment, err error) {
	run.Regime = assessment
	if err != nil {
		// UNKNOWN propagates; scoring stays neutral on regime
		run.RecordError(contracts.PhaseRegime, "", contracts.ErrCodeRegimeUnknown, err.Error(), false)
		run.Phases[contracts.PhaseRegime] = contracts.PhaseFailed
		return
	}

	run.Phases[contracts.PhaseRegime] = contracts.PhaseCompleted
}

func (o *Orchestrator) runScanning(ctx context.Context, run *contracts.PipelineRun) []contracts.StockCandidate {
	run.Phases[contracts.PhaseScanning] = contracts.PhaseRunning

	universe := o.universe
	if run.Mode == "test" && o.cfg.Pipeline.MaxStocksPerSector > 0 {
		universe = universe.Truncate(o.cfg.Pipeline.MaxStocksPerSector)
	}

	result, err := o.scanner.Scan(ctx, &universe)
	if err != nil {
		run.RecordError(contracts.PhaseScanning, "", contracts.ErrCodeCancelled, err.Error(), true)
		run.Phases[contracts.PhaseScanning] = contracts.PhaseFailed
		return nil
	}

	// The audit trail: every dropped symbol is visible to consumers
	for symbol, reason := range result.Excluded {
		run.RecordError(contracts.PhaseScanning, symbol, string(reason), "excluded during scan", false)
	}

	if len(result.Candidates) == 0 {
		run.RecordError(contracts.PhaseScanning, "", contracts.ErrCodeNoEligibleStocks,
			fmt.Sprintf("no eligible stocks after filtering %d symbols", result.Scanned), true)
		run.Phases[contracts.PhaseScanning] = contracts.PhaseFailed
		return nil
	}

	run.Phases[contracts.PhaseScanning] = contracts.PhaseCompleted
	o.checkpoint(ctx, run)
	return result.Candidates
}

func (o *Orchestrator) runEventRisk(run *contracts.PipelineRun) map[string]string {
	if o.events == nil {
		o.logger.Debug("No event calendar configured, phase skipped")
		run.Phases[contracts.PhaseEventRisk] = contracts.PhaseSkipped
		return nil
	}

	run.Phases[contracts.PhaseEventRisk] = contracts.PhaseRunning
	atRisk := o.events.AtRisk(o.now(), eventRiskHorizon)
	run.Phases[contracts.PhaseEventRisk] = contracts.PhaseCompleted

	o.logger.WithField("at_risk", len(atRisk)).Info("Event risk check completed")
	return atRisk
}

// runPrediction returns nil only on cancellation
func (o *Orchestrator) runPrediction(ctx context.Context, run *contracts.PipelineRun, candidates []contracts.StockCandidate) []contracts.PredictionResult {
	run.Phases[contracts.PhasePrediction] = contracts.PhaseRunning

	predictions, err := o.predictor.PredictAll(ctx, candidates, predict.RunContext{
		Regime:    run.Regime,
		Sentiment: run.Sentiment,
	})
	if err != nil {
		run.RecordError(contracts.PhasePrediction, "", contracts.ErrCodeCancelled, err.Error(), true)
		run.Phases[contracts.PhasePrediction] = contracts.PhaseFailed
		return nil
	}

	for _, p := range predictions {
		for _, src := range p.Sources {
			if src.Fallback {
				run.RecordError(contracts.PhasePrediction, p.Symbol, contracts.ErrCodeModelFallback,
					fmt.Sprintf("%s: %s", src.Source, src.Reason), false)
			}
		}
	}

	run.Phases[contracts.PhasePrediction] = contracts.PhaseCompleted
	o.checkpoint(ctx, run)
	return predictions
}

func (o *Orchestrator) runScoring(
	ctx context.Context,
	run *contracts.PipelineRun,
	candidates []contracts.StockCandidate,
	predictions []contracts.PredictionResult,
	eventRisk map[string]string,
) {
	run.Phases[contracts.PhaseScoring] = contracts.PhaseRunning

	if err := o.betas.Prime(ctx); err != nil {
		run.RecordError(contracts.PhaseScoring, "", contracts.ErrCodeFetchFailed,
			fmt.Sprintf("beta reference series: %v", err), false)
	}

	inputs := scoring.Inputs{
		Regime:         run.Regime,
		Sentiment:      run.Sentiment,
		SectorMomentum: scoring.SectorMomentum(candidates),
		EventRisk:      eventRisk,
	}

	predBySymbol := make(map[string]contracts.PredictionResult, len(predictions))
	for _, p := range predictions {
		predBySymbol[p.Symbol] = p
	}

	scores := make([]contracts.OpportunityScore, 0, len(candidates))
	for _, candidate := range candidates {
		scores = append(scores, o.scorer.Score(
			candidate,
			predBySymbol[candidate.Symbol],
			o.betas.Betas(candidate),
			inputs,
		))
	}

	run.Scores = scoring.Rank(scores)
	run.Sectors = scoring.SectorSummaries(scores)
	run.Phases[contracts.PhaseScoring] = contracts.PhaseCompleted
	o.checkpoint(ctx, run)
}

func (o *Orchestrator) runReport(ctx context.Context, run *contracts.PipelineRun) {
	run.Phases[contracts.PhaseReport] = contracts.PhaseRunning

	payload := BuildReport(run, o.now())
	o.logger.WithFields(map[string]interface{}{
		"run_id": payload.RunID,
		"scores": len(payload.Scores),
		"errors": len(payload.Errors),
	}).Info("Report payload generated")

	run.Phases[contracts.PhaseReport] = contracts.PhaseCompleted
}

// abort marks the remaining phases skipped and fails the run
func (o *Orchestrator) abort(ctx context.Context, run *contracts.PipelineRun) {
	for _, phase := range contracts.AllPhases() {
		if run.Phases[phase] == contracts.PhasePending {
			run.Phases[phase] = contracts.PhaseSkipped
		}
	}
	run.Status = contracts.RunFailed
	run.EndedAt = o.now()
	o.checkpoint(ctx, run)

	o.logger.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"status": run.Status,
	}).Error("Pipeline run failed")
}

func (o *Orchestrator) finalize(ctx context.Context, run *contracts.PipelineRun) {
	switch {
	case run.HasWarnings():
		run.Status = contracts.RunWithWarnings
	default:
		run.Status = contracts.RunCompleted
	}
	run.EndedAt = o.now()
	o.checkpoint(ctx, run)

	o.logger.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"status":   run.Status,
		"scores":   len(run.Scores),
		"warnings": len(run.Errors),
		"duration": run.EndedAt.Sub(run.StartedAt).Seconds(),
	}).Info("Pipeline run finished")
}

// checkpoint persists the run state after a phase. Persistence trouble
// is logged, never allowed to fail the run itself.
func (o *Orchestrator) checkpoint(ctx context.Context, run *contracts.PipelineRun) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		o.logger.WithError(err).WithField("run_id", run.ID).Warn("Run checkpoint failed")
	}
}
