package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"encoding/json/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

// RestoreService restores the board store from backup archives.
type RestoreService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewRestoreService creates a restore service.
func NewRestoreService(s *store.Store, logger *slog.Logger) *RestoreService {
	return &RestoreService{
		store:  s,
		logger: logger,
	}
}

// Restore loads a backup archive into the store. Full mode wipes existing
// data first; merge mode overlays the archive, letting the backup win on
// conflicting keys. The bundled invoice ledger is never restored in place;
// the invoice ledger is append-only and a restore must not silently discard
// confirmed invoices.
func (s *RestoreService) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()

	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown restore mode %q", ErrInvalidBackup, opts.Mode)
	}

	s.logger.Info("starting restore",
		"path", path,
		"mode", opts.Mode,
		"dry_run", opts.DryRun,
	)

	validation, err := s.Validate(ctx, path)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, validation.Errors)
	}

	if opts.DryRun {
		return &RestoreResult{
			Counts:   validation.Manifest.Counts,
			Duration: time.Since(start),
			DryRun:   true,
		}, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	rc, err := openEntry(&zr.Reader, storeFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if err := s.store.Restore(ctx, rc, opts.Mode == RestoreModeFull); err != nil {
		return nil, err
	}

	result := &RestoreResult{
		Counts:   validation.Manifest.Counts,
		Duration: time.Since(start),
	}

	s.logger.Info("restore complete",
		"boards", result.Counts.Boards,
		"tasks", result.Counts.Tasks,
		"duration", result.Duration,
	)
	return result, nil
}

// Validate checks a backup archive without importing it.
func (s *RestoreService) Validate(_ context.Context, path string) (*ValidationResult, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("failed to open backup: %v", err)},
		}, nil
	}
	defer zr.Close()

	result := &ValidationResult{Valid: true}

	rc, err := openEntry(&zr.Reader, manifestFile)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, "missing "+manifestFile)
		return result, nil
	}

	var manifest Manifest
	if err := json.UnmarshalRead(rc, &manifest); err != nil {
		rc.Close()
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("invalid manifest: %v", err))
		return result, nil
	}
	rc.Close()

	result.Manifest = &manifest

	if manifest.Version != FormatVersion {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("unsupported version %s (want %s)", manifest.Version, FormatVersion))
	}

	if sc, err := openEntry(&zr.Reader, storeFile); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, "missing "+storeFile)
	} else {
		sc.Close()
	}

	if manifest.IncludesInvoices {
		if lc, err := openEntry(&zr.Reader, ledgerFile); err != nil {
			result.Warnings = append(result.Warnings, "manifest promises invoices but "+ledgerFile+" is missing")
		} else {
			lc.Close()
		}
	}

	return result, nil
}

// openEntry opens a named file inside the archive.
func openEntry(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("entry %s not found", name)
}
