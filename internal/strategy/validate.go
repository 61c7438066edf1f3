package strategy

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (런 시작 전 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

const weightEpsilon = 1e-6

// Validate checks all required constraints. A bad strategy file must fail
// here, before any pipeline phase starts — weights are rejected, never
// silently renormalized.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if cfg.Universe.File == "" {
		return ValidationError{"universe.file", "required"}
	}
	if cfg.Universe.BenchmarkIndex == "" {
		return ValidationError{"universe.benchmark_index", "required"}
	}

	// === Eligibility ===
	e := cfg.Eligibility
	if e.MinPrice < 0 || e.MaxPrice <= 0 || e.MinPrice >= e.MaxPrice {
		return ValidationError{"eligibility", "must satisfy 0 <= min_price < max_price"}
	}
	if e.MinHistoryDays <= 0 || e.HistoryDays < e.MinHistoryDays {
		return ValidationError{"eligibility", "must satisfy 0 < min_history_days <= history_days"}
	}
	if e.MinAnnualizedVol < 0 || e.MaxAnnualizedVol <= e.MinAnnualizedVol {
		return ValidationError{"eligibility", "must satisfy 0 <= min_annualized_vol < max_annualized_vol"}
	}

	// === Volatility ===
	if cfg.Volatility.EWMALambda <= 0 || cfg.Volatility.EWMALambda >= 1 {
		return ValidationError{"volatility.ewma_lambda", "must be in (0, 1)"}
	}
	if cfg.Volatility.MinObservations <= 0 {
		return ValidationError{"volatility.min_observations", "must be > 0"}
	}
	if cfg.Volatility.DefaultDailyVol <= 0 {
		return ValidationError{"volatility.default_daily_vol", "must be > 0"}
	}

	// === Regime ===
	if cfg.Regime.WindowDays <= 0 {
		return ValidationError{"regime.window_days", "must be > 0"}
	}
	if cfg.Regime.HighVolMultiplier <= cfg.Regime.CalmVolMultiplier {
		return ValidationError{"regime", "high_vol_multiplier must be > calm_vol_multiplier"}
	}
	if cfg.Regime.DrawdownHighVol <= 0 || cfg.Regime.DrawdownHighVol >= 1 {
		return ValidationError{"regime.drawdown_high_vol", "must be in (0, 1)"}
	}

	// === Sentiment ===
	if cfg.Sentiment.MaxGapPct <= 0 {
		return ValidationError{"sentiment.max_gap_pct", "must be > 0"}
	}
	if cfg.Sentiment.MinConfidence <= 0 || cfg.Sentiment.MinConfidence >= 1 {
		return ValidationError{"sentiment.min_confidence", "must be in (0, 1)"}
	}

	// === Ensemble ===
	if sum := cfg.Ensemble.Weights.Sum(); math.Abs(sum-1.0) > weightEpsilon {
		return ValidationError{"ensemble.weights", fmt.Sprintf("must sum to 1.0, got %.4f", sum)}
	}
	if w := cfg.Ensemble.Weights; w.LSTM < 0 || w.Trend < 0 || w.Technical < 0 || w.Sentiment < 0 {
		return ValidationError{"ensemble.weights", "must be non-negative"}
	}
	if cfg.Ensemble.ModelTimeoutSec <= 0 {
		return ValidationError{"ensemble.model_timeout_sec", "must be > 0"}
	}
	if cfg.Ensemble.TrendDays <= 0 {
		return ValidationError{"ensemble.trend_days", "must be > 0"}
	}

	// === Scoring ===
	if sum := cfg.Scoring.Weights.Sum(); math.Abs(sum-1.0) > weightEpsilon {
		return ValidationError{"scoring.weights", fmt.Sprintf("must sum to 1.0, got %.4f", sum)}
	}
	w := cfg.Scoring.Weights
	for field, v := range map[string]float64{
		"prediction":      w.Prediction,
		"technical":       w.Technical,
		"sentiment":       w.Sentiment,
		"liquidity":       w.Liquidity,
		"volatility":      w.Volatility,
		"sector_momentum": w.SectorMomentum,
	} {
		if v < 0 {
			return ValidationError{"scoring.weights." + field, "must be non-negative"}
		}
	}
	if cfg.Scoring.SellThreshold >= cfg.Scoring.BuyThreshold {
		return ValidationError{"scoring", "sell_threshold must be < buy_threshold"}
	}
	if cfg.Scoring.BuyThreshold > 100 || cfg.Scoring.SellThreshold < 0 {
		return ValidationError{"scoring", "thresholds must be within [0, 100]"}
	}
	if cfg.Scoring.HighVolDampening <= 0 || cfg.Scoring.HighVolDampening > 1 {
		return ValidationError{"scoring.high_vol_dampening", "must be in (0, 1]"}
	}
	if cfg.Scoring.EventRiskPenalty < 0 || cfg.Scoring.EventRiskPenalty > 100 {
		return ValidationError{"scoring.event_risk_penalty", "must be in [0, 100]"}
	}
	if cfg.Scoring.BetaWindowDays <= 0 {
		return ValidationError{"scoring.beta_window_days", "must be > 0"}
	}

	// === Pipeline ===
	if cfg.Pipeline.ChunkSize <= 0 {
		return ValidationError{"pipeline.chunk_size", "must be > 0"}
	}
	if cfg.Pipeline.Workers <= 0 {
		return ValidationError{"pipeline.workers", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Ensemble.LSTMServiceURL == "" {
		warnings = append(warnings, Warning{
			Code:    "NO_LSTM_SERVICE",
			Message: "lstm_service_url empty: every LSTM prediction will use the trend fallback",
		})
	}
	if cfg.Ensemble.SentimentURL == "" {
		warnings = append(warnings, Warning{
			Code:    "NO_SENTIMENT_SERVICE",
			Message: "sentiment_service_url empty: every sentiment prediction will use the index-gap fallback",
		})
	}
	if cfg.Pipeline.ChunkSize > 25 {
		warnings = append(warnings, Warning{
			Code:    "LARGE_CHUNK",
			Message: "chunk_size > 25 risks tripping data source rate limits",
		})
	}
	if cfg.Scoring.Weights.Prediction > 0.5 {
		warnings = append(warnings, Warning{
			Code:    "PREDICTION_HEAVY",
			Message: "prediction weight > 50%: score becomes hostage to model availability",
		})
	}

	return warnings
}
