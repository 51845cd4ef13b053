package providers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/do/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/api"
	"github.com/flowdeckapp/flowdeck-server/internal/backup"
	"github.com/flowdeckapp/flowdeck-server/internal/config"
	"github.com/flowdeckapp/flowdeck-server/internal/invoice"
	"github.com/flowdeckapp/flowdeck-server/internal/logger"
	"github.com/flowdeckapp/flowdeck-server/internal/service"
	"github.com/flowdeckapp/flowdeck-server/internal/share"
)

// InvoiceLedgerHandle wraps the sqlite ledger with shutdown capability.
type InvoiceLedgerHandle struct {
	*invoice.Ledger
}

// Shutdown implements do.Shutdownable.
func (h *InvoiceLedgerHandle) Shutdown() error {
	return h.Close()
}

// ProvideInvoiceLedger provides the append-only invoice ledger.
func ProvideInvoiceLedger(i do.Injector) (*InvoiceLedgerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ledger, err := invoice.Open(cfg.Invoice.LedgerPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Invoice ledger opened", "path", cfg.Invoice.LedgerPath)

	return &InvoiceLedgerHandle{Ledger: ledger}, nil
}

// ProvideShareTokens provides the PASETO share token service. When no key is
// configured, a key is generated once and persisted under the data directory
// so share links survive restarts.
func ProvideShareTokens(i do.Injector) (*share.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex := cfg.Share.TokenKey
	if keyHex == "" {
		keyPath := filepath.Join(cfg.Data.BasePath, "share.key")
		loaded, err := loadOrGenerateShareKey(keyPath)
		if err != nil {
			return nil, err
		}
		keyHex = loaded
		log.Info("Using persisted share token key", "path", keyPath)
	}

	return share.NewTokenService(keyHex, cfg.Share.TokenDuration)
}

// loadOrGenerateShareKey reads the persisted share key, generating and
// writing a fresh one on first start.
func loadOrGenerateShareKey(path string) (string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- key path derives from config
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read share key: %w", err)
	}

	key, err := share.GenerateKey()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(key), 0o600); err != nil {
		return "", fmt.Errorf("persist share key: %w", err)
	}
	return key, nil
}

// ProvideServices wires up all business services used by the HTTP layer.
func ProvideServices(i do.Injector) (*api.Services, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	ledgerHandle := do.MustInvoke[*InvoiceLedgerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	tokens := do.MustInvoke[*share.TokenService](i)
	backups := do.MustInvoke[*BackupServices](i)
	log := do.MustInvoke[*logger.Logger](i)

	boards := service.NewBoardService(storeHandle.Store, sseHandle.Manager, log.Logger)

	return &api.Services{
		Board:   boards,
		Task:    service.NewTaskService(storeHandle.Store, boards, sseHandle.Manager, log.Logger),
		Timer:   service.NewTimerService(storeHandle.Store, boards, sseHandle.Manager, log.Logger),
		Comment: service.NewCommentService(storeHandle.Store, boards, sseHandle.Manager, log.Logger),
		Billing: service.NewBillingService(storeHandle.Store, boards, ledgerHandle.Ledger, sseHandle.Manager, log.Logger),
		Share:   service.NewShareService(storeHandle.Store, boards, tokens, log.Logger),
		Search:  indexHandle.SearchIndex,
		Backup:  backups.Backup,
		Restore: backups.Restore,
	}, nil
}

// BackupServices bundles the backup and restore services.
type BackupServices struct {
	Backup  *backup.Service
	Restore *backup.RestoreService
}

// ProvideBackupServices provides backup archive creation and restoration.
func ProvideBackupServices(i do.Injector) (*BackupServices, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &BackupServices{
		Backup:  backup.NewService(storeHandle.Store, cfg.Backup.Dir, cfg.Invoice.LedgerPath, cfg.Server.Name, ServerVersion, log.Logger),
		Restore: backup.NewRestoreService(storeHandle.Store, log.Logger),
	}, nil
}
