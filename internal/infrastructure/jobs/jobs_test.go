package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/domain/receivable"
	"github.com/tradeledger/backend/internal/domain/shared"
	"github.com/tradeledger/backend/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

type fakeDocuments struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeDocuments) RenderInvoice(_ context.Context, id uuid.UUID) (*appreceivable.DocumentLinkResponse, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return &appreceivable.DocumentLinkResponse{InvoiceID: id, URL: "http://files/" + id.String(), ExpiresAt: time.Now().Add(time.Minute)}, nil
}

type fakeReconciler struct {
	runs   int
	report *receivable.ReconciliationReport
	err    error
}

func (f *fakeReconciler) Run(context.Context) (*receivable.ReconciliationReport, error) {
	f.runs++
	return f.report, f.err
}

func TestNewInvoiceDocumentTask(t *testing.T) {
	_, err := NewInvoiceDocumentTask(uuid.Nil)
	assert.Error(t, err)

	id := uuid.New()
	task, err := NewInvoiceDocumentTask(id)
	require.NoError(t, err)
	assert.Equal(t, TaskInvoiceDocument, task.Type())

	var payload InvoiceDocumentPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, id, payload.InvoiceID)
}

func TestNewReconcileTask_DefaultsTrigger(t *testing.T) {
	task, err := NewReconcileTask("")
	require.NoError(t, err)
	assert.JSONEq(t, `{"trigger":"manual"}`, string(task.Payload()))
}

func TestHandleInvoiceDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("renders the invoice", func(t *testing.T) {
		docs := &fakeDocuments{}
		h := NewHandlers(docs, nil, nil, zaptest.NewLogger(t))
		id := uuid.New()
		task, err := NewInvoiceDocumentTask(id)
		require.NoError(t, err)

		require.NoError(t, h.HandleInvoiceDocument(ctx, task))
		assert.Equal(t, []uuid.UUID{id}, docs.calls)
	})

	t.Run("malformed payload is not retried", func(t *testing.T) {
		docs := &fakeDocuments{}
		h := NewHandlers(docs, nil, nil, nil)
		err := h.HandleInvoiceDocument(ctx, asynq.NewTask(TaskInvoiceDocument, []byte("{")))
		assert.True(t, errors.Is(err, asynq.SkipRetry))
		assert.Empty(t, docs.calls)
	})

	t.Run("deleted invoice is not retried", func(t *testing.T) {
		docs := &fakeDocuments{err: shared.NewNotFoundError("invoice", "x")}
		h := NewHandlers(docs, nil, nil, nil)
		task, _ := NewInvoiceDocumentTask(uuid.New())
		err := h.HandleInvoiceDocument(ctx, task)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("render failure is retried", func(t *testing.T) {
		docs := &fakeDocuments{err: errors.New("chrome crashed")}
		h := NewHandlers(docs, nil, nil, nil)
		task, _ := NewInvoiceDocumentTask(uuid.New())
		err := h.HandleInvoiceDocument(ctx, task)
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})
}

func TestHandleReconcile(t *testing.T) {
	ctx := context.Background()
	task, err := NewReconcileTask("cron")
	require.NoError(t, err)

	rec := &fakeReconciler{report: &receivable.ReconciliationReport{
		AmountDrifts: []receivable.AmountDrift{{}},
	}}
	h := NewHandlers(nil, rec, nil, zaptest.NewLogger(t))
	assert.NoError(t, h.HandleReconcile(ctx, task), "drift does not fail the task")
	assert.Equal(t, 1, rec.runs)

	rec.err = errors.New("db down")
	assert.Error(t, h.HandleReconcile(ctx, task))

	err = h.HandleReconcile(ctx, asynq.NewTask(TaskReconcile, []byte("nope")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestTaskHandlers_SkipsMissingServices(t *testing.T) {
	assert.Empty(t, NewHandlers(nil, nil, nil, nil).TaskHandlers())

	handlers := NewHandlers(&fakeDocuments{}, &fakeReconciler{}, nil, nil).TaskHandlers()
	require.Len(t, handlers, 2)
	assert.Equal(t, TaskInvoiceDocument, handlers[0].Type)
	assert.Equal(t, TaskReconcile, handlers[1].Type)
}

func TestClient_EnqueueInvoiceDocument(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()}, ClientOptions{}, zaptest.NewLogger(t))
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, client.EnqueueInvoiceDocument(ctx, id))
	// a second request while the first is pending is absorbed
	require.NoError(t, client.EnqueueInvoiceDocument(ctx, id))

	pending, err := mr.List("asynq:{" + QueueDocuments + "}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.True(t, mr.Exists("asynq:{"+QueueDocuments+"}:t:"+documentTaskID(id)))

	assert.Error(t, client.EnqueueInvoiceDocument(ctx, uuid.Nil))
}

func TestClient_EnqueueFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr(), DialTimeout: 100 * time.Millisecond}, ClientOptions{}, nil)
	defer func() { _ = client.Close() }()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, client.EnqueueInvoiceDocument(ctx, uuid.New()))
}

func TestReconcileSchedule(t *testing.T) {
	regs, err := ReconcileSchedule("")
	require.NoError(t, err)
	assert.Nil(t, regs)

	regs, err = ReconcileSchedule("@every 1h")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, TaskReconcile, regs[0].Task.Type())
}

func TestNewWorker(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}

	regs, err := ReconcileSchedule("0 2 * * *")
	require.NoError(t, err)
	w, err := NewWorker(WorkerConfig{
		RedisOpts: opts,
		Handlers:  NewHandlers(&fakeDocuments{}, &fakeReconciler{}, nil, nil).TaskHandlers(),
		Cron:      regs,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)

	task, _ := NewReconcileTask("cron")
	_, err = NewWorker(WorkerConfig{
		RedisOpts: opts,
		Cron:      []CronRegistration{{Spec: "not a cron", Task: task}},
	})
	assert.Error(t, err)
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func TestWorker_RunNil(t *testing.T) {
	var w *Worker
	assert.Error(t, w.Run(context.Background()))
}
