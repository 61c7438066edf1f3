package contracts

// SourceKind identifies one leg of the prediction ensemble
type SourceKind string

const (
	SourceLSTM      SourceKind = "lstm"
	SourceTrend     SourceKind = "trend"
	SourceTechnical SourceKind = "technical"
	SourceSentiment SourceKind = "sentiment"
)

// AllSources returns the ensemble legs in combination order
func AllSources() []SourceKind {
	return []SourceKind{SourceLSTM, SourceTrend, SourceTechnical, SourceSentiment}
}

// FallbackReason records why a source degraded to its local substitute
type FallbackReason string

const (
	FallbackNone           FallbackReason = ""
	FallbackToTrend        FallbackReason = "fallback_to_trend"
	FallbackToIndexSent    FallbackReason = "fallback_to_index_sentiment"
	FallbackModelTimeout   FallbackReason = "model_timeout"
	FallbackModelMissing   FallbackReason = "model_missing"
	FallbackInsufficientDa FallbackReason = "insufficient_data"
)

// SourcePrediction is one leg's directional call.
// Every leg is always populated, either by the real model or by the
// documented fallback; a nil/absent leg is a bug.
type SourcePrediction struct {
	Source     SourceKind     `json:"source"`
	Direction  float64        `json:"direction"`  // -1..1
	Confidence float64        `json:"confidence"` // 0..1
	Fallback   bool           `json:"fallback"`
	Reason     FallbackReason `json:"reason,omitempty"`
}

// PredictionResult is the per-stock ensemble output
type PredictionResult struct {
	Symbol  string                          `json:"symbol"`
	Sources map[SourceKind]SourcePrediction `json:"sources"`

	Direction  float64 `json:"direction"`  // -1..1 combined
	Confidence float64 `json:"confidence"` // 0..1 combined
}

// FallbackCount returns how many legs used a fallback
func (p PredictionResult) FallbackCount() int {
	n := 0
	for _, s := range p.Sources {
		if s.Fallback {
			n++
		}
	}
	return n
}

// Degraded reports whether more than half the legs fell back
func (p PredictionResult) Degraded() bool {
	return p.FallbackCount()*2 > len(p.Sources)
}
