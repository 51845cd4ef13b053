package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

func (s *Server) registerBillingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "previewInvoice",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{boardId}/billing/preview",
		Summary:     "Preview invoice",
		Description: "Computes invoice lines for the selected tasks without persisting anything",
		Tags:        []string{"Billing"},
	}, s.handlePreviewInvoice)

	huma.Register(s.api, huma.Operation{
		OperationID: "confirmInvoice",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{boardId}/billing/confirm",
		Summary:     "Confirm invoice",
		Description: "Freezes the current preview into the invoice ledger",
		Tags:        []string{"Billing"},
	}, s.handleConfirmInvoice)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInvoice",
		Method:      http.MethodGet,
		Path:        "/api/v1/invoices/{invoiceId}",
		Summary:     "Get invoice",
		Description: "Returns a confirmed invoice with its lines",
		Tags:        []string{"Billing"},
	}, s.handleGetInvoice)

	huma.Register(s.api, huma.Operation{
		OperationID: "listInvoices",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces/{workspaceId}/invoices",
		Summary:     "List invoices",
		Description: "Returns a workspace's confirmed invoices, newest first",
		Tags:        []string{"Billing"},
	}, s.handleListInvoices)
}

// === DTOs ===

// BillingSelectionRequest selects the tasks to invoice. An empty selection
// means every task on the board with tracked time.
type BillingSelectionRequest struct {
	TaskIDs []string `json:"task_ids,omitempty" doc:"Task IDs to invoice; empty selects all tasks with tracked time"`
}

// BillingInput wraps the billing selection for Huma.
type BillingInput struct {
	MemberID string `header:"X-Member-ID"`
	BoardID  string `path:"boardId" doc:"Board ID"`
	Body     BillingSelectionRequest
}

// InvoiceOutput wraps an invoice response for Huma.
type InvoiceOutput struct {
	Body *domain.Invoice
}

// GetInvoiceInput contains parameters for retrieving an invoice.
type GetInvoiceInput struct {
	InvoiceID string `path:"invoiceId" doc:"Invoice ID"`
}

// ListInvoicesInput contains parameters for listing invoices.
type ListInvoicesInput struct {
	WorkspaceID string `path:"workspaceId" doc:"Workspace ID"`
}

// ListInvoicesResponse lists a workspace's invoices.
type ListInvoicesResponse struct {
	Invoices []*domain.Invoice `json:"invoices" doc:"Confirmed invoices, newest first"`
}

// ListInvoicesOutput wraps the invoice list for Huma.
type ListInvoicesOutput struct {
	Body ListInvoicesResponse
}

// === Handlers ===

func (s *Server) handlePreviewInvoice(ctx context.Context, input *BillingInput) (*InvoiceOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.services.Billing.Preview(ctx, input.BoardID, actorID, input.Body.TaskIDs)
	if err != nil {
		return nil, err
	}

	return &InvoiceOutput{Body: invoice}, nil
}

func (s *Server) handleConfirmInvoice(ctx context.Context, input *BillingInput) (*InvoiceOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.services.Billing.Confirm(ctx, input.BoardID, actorID, input.Body.TaskIDs)
	if err != nil {
		return nil, err
	}

	return &InvoiceOutput{Body: invoice}, nil
}

func (s *Server) handleGetInvoice(ctx context.Context, input *GetInvoiceInput) (*InvoiceOutput, error) {
	invoice, err := s.services.Billing.GetInvoice(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}

	return &InvoiceOutput{Body: invoice}, nil
}

func (s *Server) handleListInvoices(ctx context.Context, input *ListInvoicesInput) (*ListInvoicesOutput, error) {
	invoices, err := s.services.Billing.ListInvoices(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []*domain.Invoice{}
	}

	return &ListInvoicesOutput{Body: ListInvoicesResponse{Invoices: invoices}}, nil
}
