package backup

import "time"

// Options configures backup creation.
type Options struct {
	// OutputPath overrides the generated archive path.
	OutputPath string
	// IncludeInvoices bundles the sqlite invoice ledger into the archive.
	IncludeInvoices bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		IncludeInvoices: true,
	}
}

// RestoreMode determines how to handle existing data.
type RestoreMode string

const (
	// RestoreModeFull wipes existing data and restores from the backup.
	RestoreModeFull RestoreMode = "full"

	// RestoreModeMerge loads the backup on top of existing data; keys present
	// in both are overwritten by the backup's values.
	RestoreModeMerge RestoreMode = "merge"
)

// Valid returns true if the restore mode is recognized.
func (m RestoreMode) Valid() bool {
	switch m {
	case RestoreModeFull, RestoreModeMerge:
		return true
	default:
		return false
	}
}

// RestoreOptions configures restoration.
type RestoreOptions struct {
	Mode RestoreMode
	// DryRun validates the archive without writing anything.
	DryRun bool
}

// Result contains the outcome of a backup operation.
type Result struct {
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Counts   EntityCounts  `json:"counts"`
	Duration time.Duration `json:"duration"`
	Checksum string        `json:"checksum"`
}

// Info describes an existing backup.
type Info struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	Counts   EntityCounts  `json:"counts"`
	Duration time.Duration `json:"duration"`
	DryRun   bool          `json:"dry_run"`
}

// ValidationResult describes backup validity.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Manifest *Manifest `json:"manifest,omitempty"`
	Errors   []string  `json:"errors,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}
