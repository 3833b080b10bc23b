package notify

import (
	"context"

	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
)

// RunMessage announces a completed pipeline run.
type RunMessage struct {
	RunID           string                           `json:"run_id"`
	Rows            int                              `json:"rows"`
	FirstKey        profiles.DatehourKey             `json:"first_key"`
	LastKey         profiles.DatehourKey             `json:"last_key"`
	ForwardFilled   map[string]int                   `json:"forward_filled,omitempty"`
	CapacityFactors []application.YearCapacityFactor `json:"capacity_factors,omitempty"`
	ReportURL       string                           `json:"report_url,omitempty"`
}

// Notifier sends notifications.
type Notifier interface {
	Notify(ctx context.Context, msg RunMessage) error
}

// NewRunMessage builds the message for a run summary.
func NewRunMessage(summary application.RunSummary, reportURL string) RunMessage {
	return RunMessage{
		RunID:           summary.RunID,
		Rows:            summary.Rows,
		FirstKey:        summary.FirstKey,
		LastKey:         summary.LastKey,
		ForwardFilled:   summary.ForwardFilled,
		CapacityFactors: summary.CapacityFactors,
		ReportURL:       reportURL,
	}
}
