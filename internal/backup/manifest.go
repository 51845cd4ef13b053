package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Manifest describes backup contents and metadata.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	// Server identity
	ServerName string `json:"server_name"`
	AppVersion string `json:"app_version"`

	// Content summary
	Counts EntityCounts `json:"counts"`

	// StoreVersion is the badger version the snapshot is consistent up to.
	StoreVersion uint64 `json:"store_version"`

	// IncludesInvoices reports whether the invoice ledger file is bundled.
	IncludesInvoices bool `json:"includes_invoices"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Boards  int `json:"boards"`
	Columns int `json:"columns"`
	Tasks   int `json:"tasks"`
	Shares  int `json:"shares"`
}
