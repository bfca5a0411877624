package materialize

import (
	"time"

	"animehub/internal/events"
)

// BatchSummary tallies the results of one materialization run.
type BatchSummary struct {
	Total   int
	Applied int
	Skipped int
	Failed  int

	startedAt time.Time
}

func NewBatchSummary() *BatchSummary {
	return &BatchSummary{startedAt: time.Now()}
}

// Add records one attempt's terminal status.
func (b *BatchSummary) Add(result *Result) {
	b.Total++
	switch result.Status {
	case StatusApplied:
		b.Applied++
	case StatusSkipped:
		b.Skipped++
	case StatusFailed:
		b.Failed++
	}
}

// Event converts the tally into its completion announcement.
func (b *BatchSummary) Event() events.MaterializationBatchCompleted {
	return events.MaterializationBatchCompleted{
		Meta:     events.NewMeta(),
		Total:    b.Total,
		Applied:  b.Applied,
		Skipped:  b.Skipped,
		Failed:   b.Failed,
		Duration: time.Since(b.startedAt),
	}
}
