package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/backup"
)

func (s *Server) registerBackupRoutes() {
	// Backup tooling is optional; tests run without it.
	if s.services.Backup == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "createBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/backups",
		Summary:     "Create backup",
		Description: "Writes a backup archive of the board store",
		Tags:        []string{"Backups"},
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/backups",
		Summary:     "List backups",
		Description: "Returns available backup archives, newest first",
		Tags:        []string{"Backups"},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBackup",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/backups/{backupId}",
		Summary:     "Delete backup",
		Description: "Removes a backup archive",
		Tags:        []string{"Backups"},
	}, s.handleDeleteBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/backups/{backupId}/restore",
		Summary:     "Restore backup",
		Description: "Restores the board store from a backup archive",
		Tags:        []string{"Backups"},
	}, s.handleRestoreBackup)
}

// === DTOs ===

// CreateBackupRequest is the request body for creating a backup.
type CreateBackupRequest struct {
	IncludeInvoices *bool `json:"include_invoices,omitempty" doc:"Bundle the invoice ledger (default true)"`
}

// CreateBackupInput is the full request for creating a backup.
type CreateBackupInput struct {
	MemberID string `header:"X-Member-ID" doc:"Acting member id"`
	Body     CreateBackupRequest
}

// BackupResultOutput wraps a backup result response.
type BackupResultOutput struct {
	Body *backup.Result
}

// ListBackupsInput is the request for listing backups.
type ListBackupsInput struct {
	MemberID string `header:"X-Member-ID" doc:"Acting member id"`
}

// ListBackupsResponse is the response body for listing backups.
type ListBackupsResponse struct {
	Backups []backup.Info `json:"backups"`
}

// ListBackupsOutput wraps the backup list response.
type ListBackupsOutput struct {
	Body ListBackupsResponse
}

// BackupInput identifies one backup archive.
type BackupInput struct {
	MemberID string `header:"X-Member-ID" doc:"Acting member id"`
	BackupID string `path:"backupId" doc:"Backup id"`
}

// RestoreBackupRequest is the request body for restoring a backup.
type RestoreBackupRequest struct {
	Mode   string `json:"mode,omitempty" doc:"Restore mode, full or merge (default full)"`
	DryRun bool   `json:"dry_run,omitempty" doc:"Validate without writing"`
}

// RestoreBackupInput is the full request for restoring a backup.
type RestoreBackupInput struct {
	MemberID string `header:"X-Member-ID" doc:"Acting member id"`
	BackupID string `path:"backupId" doc:"Backup id"`
	Body     RestoreBackupRequest
}

// RestoreResultOutput wraps a restore result response.
type RestoreResultOutput struct {
	Body *backup.RestoreResult
}

// === Handlers ===

func (s *Server) handleCreateBackup(ctx context.Context, input *CreateBackupInput) (*BackupResultOutput, error) {
	if _, err := requireActor(input.MemberID); err != nil {
		return nil, err
	}

	opts := backup.DefaultOptions()
	if input.Body.IncludeInvoices != nil {
		opts.IncludeInvoices = *input.Body.IncludeInvoices
	}

	result, err := s.services.Backup.Create(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &BackupResultOutput{Body: result}, nil
}

func (s *Server) handleListBackups(ctx context.Context, input *ListBackupsInput) (*ListBackupsOutput, error) {
	if _, err := requireActor(input.MemberID); err != nil {
		return nil, err
	}

	backups, err := s.services.Backup.List(ctx)
	if err != nil {
		return nil, err
	}
	if backups == nil {
		backups = []backup.Info{}
	}
	return &ListBackupsOutput{Body: ListBackupsResponse{Backups: backups}}, nil
}

func (s *Server) handleDeleteBackup(ctx context.Context, input *BackupInput) (*MessageOutput, error) {
	if _, err := requireActor(input.MemberID); err != nil {
		return nil, err
	}

	if err := s.services.Backup.Delete(ctx, input.BackupID); err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return nil, huma.Error404NotFound("Backup not found")
		}
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Backup deleted"}}, nil
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *RestoreBackupInput) (*RestoreResultOutput, error) {
	if _, err := requireActor(input.MemberID); err != nil {
		return nil, err
	}

	mode := backup.RestoreMode(input.Body.Mode)
	if mode == "" {
		mode = backup.RestoreModeFull
	}

	path := s.services.Backup.Path(input.BackupID)
	result, err := s.services.Restore.Restore(ctx, path, backup.RestoreOptions{
		Mode:   mode,
		DryRun: input.Body.DryRun,
	})
	if err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return nil, huma.Error404NotFound("Backup not found")
		}
		if errors.Is(err, backup.ErrInvalidBackup) {
			return nil, huma.Error400BadRequest("Invalid backup archive", err)
		}
		return nil, err
	}
	return &RestoreResultOutput{Body: result}, nil
}
