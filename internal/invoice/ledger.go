// Package invoice persists confirmed billing runs in a SQLite ledger,
// separate from the live board store so financial records survive board
// deletion.
package invoice

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
)

//go:embed schema.sql
var schemaSQL string

// Ledger provides SQLite-backed persistence for confirmed invoices.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the invoice ledger at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool to 1 writer (SQLite limitation).
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("invoice ledger opened", "path", path)
	}

	return &Ledger{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record persists a confirmed invoice with its lines. The invoice id is
// assigned here; the returned invoice carries it.
func (l *Ledger) Record(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if len(invoice.Lines) == 0 {
		return nil, errors.Validation("invoice has no lines")
	}

	invoiceID, err := id.Generate("inv")
	if err != nil {
		return nil, fmt.Errorf("generate invoice id: %w", err)
	}
	invoice.ID = invoiceID
	invoice.CreatedAt = time.Now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices (id, workspace_id, board_id, total, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		invoice.ID, invoice.WorkspaceID, invoice.BoardID, invoice.Total,
		invoice.CreatedBy, invoice.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	for i, line := range invoice.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_lines
			 (invoice_id, line_no, task_id, title, effective_seconds, hourly_rate, rounding, billable_hours, price)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			invoice.ID, i, line.TaskID, line.Title, line.EffectiveSeconds,
			line.HourlyRate, string(line.Rounding), line.BillableHours, line.Price)
		if err != nil {
			return nil, fmt.Errorf("insert invoice line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit invoice: %w", err)
	}

	if l.logger != nil {
		l.logger.Info("invoice recorded",
			slog.String("invoice_id", invoice.ID),
			slog.String("board_id", invoice.BoardID),
			slog.Int("lines", len(invoice.Lines)),
			slog.Float64("total", invoice.Total))
	}
	return invoice, nil
}

// Get retrieves an invoice with its lines.
func (l *Ledger) Get(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var createdAt int64
	err := l.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, board_id, total, created_by, created_at
		 FROM invoices WHERE id = ?`, invoiceID).
		Scan(&invoice.ID, &invoice.WorkspaceID, &invoice.BoardID,
			&invoice.Total, &invoice.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("invoice " + invoiceID + " not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}
	invoice.CreatedAt = time.UnixMilli(createdAt)

	rows, err := l.db.QueryContext(ctx,
		`SELECT task_id, title, effective_seconds, hourly_rate, rounding, billable_hours, price
		 FROM invoice_lines WHERE invoice_id = ? ORDER BY line_no`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.InvoiceLine
		var rounding string
		if err := rows.Scan(&line.TaskID, &line.Title, &line.EffectiveSeconds,
			&line.HourlyRate, &rounding, &line.BillableHours, &line.Price); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		line.Rounding = domain.RoundingOption(rounding)
		invoice.Lines = append(invoice.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice lines: %w", err)
	}

	return invoice, nil
}

// List returns a workspace's invoices, newest first, without lines.
func (l *Ledger) List(ctx context.Context, workspaceID string) ([]*domain.Invoice, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, workspace_id, board_id, total, created_by, created_at
		 FROM invoices WHERE workspace_id = ? ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		invoice := &domain.Invoice{}
		var createdAt int64
		if err := rows.Scan(&invoice.ID, &invoice.WorkspaceID, &invoice.BoardID,
			&invoice.Total, &invoice.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoice.CreatedAt = time.UnixMilli(createdAt)
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}

	return invoices, nil
}
