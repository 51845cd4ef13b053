// Package backup writes and restores archive snapshots of the board store.
// An archive is a zip containing a manifest, a badger backup stream, and
// optionally the sqlite invoice ledger file.
package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"encoding/json/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

const (
	archiveSuffix = ".flowdeck.zip"

	manifestFile = "manifest.json"
	storeFile    = "store.badger"
	ledgerFile   = "invoices.db"
)

// Service creates, lists, and deletes backup archives.
type Service struct {
	store      *store.Store
	backupDir  string
	ledgerPath string
	serverName string
	version    string
	logger     *slog.Logger
}

// NewService creates a backup service. ledgerPath may be empty when no
// invoice ledger is configured.
func NewService(s *store.Store, backupDir, ledgerPath, serverName, version string, logger *slog.Logger) *Service {
	return &Service{
		store:      s,
		backupDir:  backupDir,
		ledgerPath: ledgerPath,
		serverName: serverName,
		version:    version,
		logger:     logger,
	}
}

// Create writes a new backup archive.
func (s *Service) Create(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		timestamp := time.Now().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, "backup-"+timestamp+archiveSuffix)
	}

	s.logger.Info("creating backup",
		"output", outputPath,
		"include_invoices", opts.IncludeInvoices,
	)

	counts, err := s.entityCounts(ctx)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(outputPath) //#nosec G304 -- backup path is server controlled
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, hasher))

	// Badger stream first; the manifest records the version it is consistent
	// up to.
	sw, err := zw.Create(storeFile)
	if err != nil {
		return nil, fmt.Errorf("create store entry: %w", err)
	}
	storeVersion, err := s.store.Backup(ctx, sw)
	if err != nil {
		return nil, fmt.Errorf("backup store: %w", err)
	}

	includesInvoices := false
	if opts.IncludeInvoices && s.ledgerPath != "" {
		if err := s.writeLedger(zw); err != nil {
			return nil, err
		}
		includesInvoices = true
	}

	manifest := Manifest{
		Version:          FormatVersion,
		CreatedAt:        time.Now(),
		ServerName:       s.serverName,
		AppVersion:       s.version,
		Counts:           counts,
		StoreVersion:     storeVersion,
		IncludesInvoices: includesInvoices,
	}
	mw, err := zw.Create(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("create manifest entry: %w", err)
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path:     outputPath,
		Size:     info.Size(),
		Counts:   counts,
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}

	s.logger.Info("backup complete",
		"path", result.Path,
		"size", result.Size,
		"duration", result.Duration,
		"checksum", result.Checksum,
	)
	return result, nil
}

// writeLedger copies the sqlite ledger file into the archive. Missing ledger
// files are not an error; a fresh server has no invoices yet.
func (s *Service) writeLedger(zw *zip.Writer) error {
	lf, err := os.Open(s.ledgerPath) //#nosec G304 -- ledger path comes from config
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open ledger: %w", err)
	}
	defer lf.Close()

	w, err := zw.Create(ledgerFile)
	if err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	if _, err := io.Copy(w, lf); err != nil {
		return fmt.Errorf("copy ledger: %w", err)
	}
	return nil
}

// entityCounts snapshots per-entity record counts for the manifest.
func (s *Service) entityCounts(ctx context.Context) (EntityCounts, error) {
	raw, err := s.store.CountEntities(ctx)
	if err != nil {
		return EntityCounts{}, fmt.Errorf("count entities: %w", err)
	}
	return EntityCounts{
		Boards:  raw["boards"],
		Columns: raw["columns"],
		Tasks:   raw["tasks"],
		Shares:  raw["shares"],
	}, nil
}

// List returns all available backups, newest first.
func (s *Service) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			ID:        strings.TrimSuffix(entry.Name(), archiveSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns a backup by id.
func (s *Service) Get(_ context.Context, id string) (*Info, error) {
	path := s.Path(id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}
	return &Info{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup archive.
func (s *Service) Delete(_ context.Context, id string) error {
	path := s.Path(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return err
	}
	return os.Remove(path)
}

// Path returns the archive path for a backup id.
func (s *Service) Path(id string) string {
	return filepath.Join(s.backupDir, id+archiveSuffix)
}
