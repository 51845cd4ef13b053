package domain

import "time"

// InvoiceLine is one priced line derived from a single task's tracked time.
// Lines are never aggregated; one selected task produces exactly one line.
type InvoiceLine struct {
	TaskID           string         `json:"task_id"`
	Title            string         `json:"title"`
	EffectiveSeconds int64          `json:"effective_seconds"`
	HourlyRate       float64        `json:"hourly_rate"`
	Rounding         RoundingOption `json:"rounding"`
	BillableHours    float64        `json:"billable_hours"`
	Price            float64        `json:"price"`
}

// Invoice is a confirmed billing selection persisted to the ledger.
type Invoice struct {
	ID          string        `json:"id"`
	WorkspaceID string        `json:"workspace_id"`
	BoardID     string        `json:"board_id"`
	Lines       []InvoiceLine `json:"lines"`
	Total       float64       `json:"total"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}
