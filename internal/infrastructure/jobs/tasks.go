package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault carries reconciliation and other housekeeping tasks.
	QueueDefault = "default"
	// QueueDocuments carries invoice rendering, which is slow and browser bound.
	QueueDocuments = "documents"

	// TaskInvoiceDocument renders and stores the PDF for one invoice.
	TaskInvoiceDocument = "invoice:render_document"
	// TaskReconcile runs the ledger reconciliation check.
	TaskReconcile = "ledger:reconcile"
)

// InvoiceDocumentPayload identifies the invoice to render.
type InvoiceDocumentPayload struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// NewInvoiceDocumentTask builds a render task.
func NewInvoiceDocumentTask(invoiceID uuid.UUID, opts ...asynq.Option) (*asynq.Task, error) {
	if invoiceID == uuid.Nil {
		return nil, fmt.Errorf("jobs: invoice id is required")
	}
	data, err := json.Marshal(InvoiceDocumentPayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceDocument, data, opts...), nil
}

// ReconcilePayload is the payload of TaskReconcile.
type ReconcilePayload struct {
	Trigger string `json:"trigger"` // cron, manual
}

func NewReconcileTask(trigger string, opts ...asynq.Option) (*asynq.Task, error) {
	if trigger == "" {
		trigger = "manual"
	}
	data, err := json.Marshal(ReconcilePayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcile, data, opts...), nil
}

// documentTaskID keys pending render tasks on the invoice. The task reads
// the invoice when it runs, so one pending task covers every edit made
// before it starts.
func documentTaskID(invoiceID uuid.UUID) string {
	return "doc:" + invoiceID.String()
}
