package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ClientOptions tunes enqueued document tasks.
type ClientOptions struct {
	DocumentMaxRetry int
	DocumentTimeout  time.Duration
}

// Client submits ledger tasks to the queue.
type Client struct {
	client *asynq.Client
	opts   ClientOptions
	logger *zap.Logger
}

// NewClient creates a queue client. It implements the invoice service's
// document enqueuer.
func NewClient(redisOpts asynq.RedisClientOpt, opts ClientOptions, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DocumentMaxRetry <= 0 {
		opts.DocumentMaxRetry = 5
	}
	if opts.DocumentTimeout <= 0 {
		opts.DocumentTimeout = 2 * time.Minute
	}
	return &Client{client: asynq.NewClient(redisOpts), opts: opts, logger: logger.Named("jobs")}
}

// EnqueueInvoiceDocument schedules rendering for an invoice. A render
// already pending for the same invoice is reused.
func (c *Client) EnqueueInvoiceDocument(ctx context.Context, invoiceID uuid.UUID) error {
	task, err := NewInvoiceDocumentTask(invoiceID,
		asynq.Queue(QueueDocuments),
		asynq.MaxRetry(c.opts.DocumentMaxRetry),
		asynq.Timeout(c.opts.DocumentTimeout),
		asynq.TaskID(documentTaskID(invoiceID)),
	)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		c.logger.Debug("Document task already pending", zap.String("invoice_id", invoiceID.String()))
		return nil
	}
	if err != nil {
		return err
	}
	c.logger.Debug("Document task enqueued",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}

// EnqueueReconcile schedules an out-of-band reconciliation run.
func (c *Client) EnqueueReconcile(ctx context.Context) (*asynq.TaskInfo, error) {
	task, err := NewReconcileTask("manual", asynq.Queue(QueueDefault), asynq.MaxRetry(1))
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases the redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
