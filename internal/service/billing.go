package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/invoice"
	"github.com/flowdeckapp/flowdeck-server/internal/sse"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

// BillingService turns tracked time into invoice lines. Previews are computed
// on the fly; confirmed invoices go to the SQLite ledger and survive board
// deletion.
type BillingService struct {
	store      *store.Store
	boards     *BoardService
	ledger     *invoice.Ledger
	sseManager *sse.Manager
	logger     *slog.Logger
	now        func() time.Time
}

// NewBillingService creates a new billing service.
func NewBillingService(store *store.Store, boards *BoardService, ledger *invoice.Ledger, sseManager *sse.Manager, logger *slog.Logger) *BillingService {
	return &BillingService{
		store:      store,
		boards:     boards,
		ledger:     ledger,
		sseManager: sseManager,
		logger:     logger,
		now:        time.Now,
	}
}

// Preview computes invoice lines for the selected tasks without persisting
// anything. An empty selection means every task on the board with tracked
// time. Running timers contribute their elapsed span as of now.
func (s *BillingService) Preview(ctx context.Context, boardID, actorID string, taskIDs []string) (*domain.Invoice, error) {
	board, err := s.boards.requireMember(ctx, boardID, actorID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.selectTasks(ctx, boardID, taskIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	draft := &domain.Invoice{
		WorkspaceID: board.WorkspaceID,
		BoardID:     boardID,
		CreatedBy:   actorID,
	}
	for _, task := range tasks {
		tt := task.TimeTracking
		if tt == nil {
			continue
		}
		seconds := tt.EffectiveSeconds(now)
		if seconds == 0 && len(taskIDs) == 0 {
			continue
		}
		line := domain.InvoiceLine{
			TaskID:           task.ID,
			Title:            task.Title,
			EffectiveSeconds: seconds,
			HourlyRate:       tt.HourlyRate,
			Rounding:         tt.Rounding,
			BillableHours:    tt.BillableHours(now),
			Price:            tt.Price(now),
		}
		draft.Lines = append(draft.Lines, line)
		draft.Total += line.Price
	}

	return draft, nil
}

// Confirm freezes the preview for the selected tasks into the ledger and
// broadcasts the new invoice.
func (s *BillingService) Confirm(ctx context.Context, boardID, actorID string, taskIDs []string) (*domain.Invoice, error) {
	draft, err := s.Preview(ctx, boardID, actorID, taskIDs)
	if err != nil {
		return nil, err
	}
	if len(draft.Lines) == 0 {
		return nil, errors.Validation("nothing to invoice: no tracked time on the selected tasks")
	}

	recorded, err := s.ledger.Record(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewInvoiceCreatedEvent(recorded, actorID))

	s.logger.Info("invoice confirmed",
		"invoice_id", recorded.ID,
		"board_id", boardID,
		"lines", len(recorded.Lines),
		"total", recorded.Total,
	)
	return recorded, nil
}

// GetInvoice retrieves a confirmed invoice with its lines.
func (s *BillingService) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.ledger.Get(ctx, invoiceID)
}

// ListInvoices returns a workspace's confirmed invoices, newest first.
func (s *BillingService) ListInvoices(ctx context.Context, workspaceID string) ([]*domain.Invoice, error) {
	return s.ledger.List(ctx, workspaceID)
}

// selectTasks resolves the billing selection. Explicit ids must all belong
// to the board; the selection ignores whatever view filters the client has.
func (s *BillingService) selectTasks(ctx context.Context, boardID string, taskIDs []string) ([]*domain.Task, error) {
	if len(taskIDs) == 0 {
		return s.store.ListBoardTasks(ctx, boardID)
	}

	tasks := make([]*domain.Task, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		task, err := s.store.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.BoardID != boardID {
			return nil, errors.Validationf("task %s does not belong to board %s", taskID, boardID)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
