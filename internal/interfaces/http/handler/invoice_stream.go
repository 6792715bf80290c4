package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/infrastructure/logger"
	"github.com/tradeledger/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// SSEMessage is one server-sent event frame
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

// InvoiceStreamHandler pushes invoice list snapshots over server-sent events
type InvoiceStreamHandler struct {
	BaseHandler
	source     *appreceivable.SnapshotSource
	heartbeat  time.Duration
	maxClients int64
	clients    atomic.Int64
}

type InvoiceStreamOption func(*InvoiceStreamHandler)

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) InvoiceStreamOption {
	return func(h *InvoiceStreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients caps concurrent subscribers; zero means unlimited
func WithStreamMaxClients(max int) InvoiceStreamOption {
	return func(h *InvoiceStreamHandler) {
		h.maxClients = int64(max)
	}
}

// NewInvoiceStreamHandler creates a new InvoiceStreamHandler
func NewInvoiceStreamHandler(source *appreceivable.SnapshotSource, opts ...InvoiceStreamOption) *InvoiceStreamHandler {
	h := &InvoiceStreamHandler{
		source:     source,
		heartbeat:  30 * time.Second,
		maxClients: 1000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// acquireClient reserves a stream slot, releasing it again when the cap is exceeded.
func (h *InvoiceStreamHandler) acquireClient() bool {
	n := h.clients.Add(1)
	if h.maxClients > 0 && n > h.maxClients {
		h.clients.Add(-1)
		return false
	}
	return true
}

// Stream godoc
// @ID           streamInvoices
// @Summary      Subscribe to invoice list snapshots via SSE
// @Description  Emits a snapshot event on connect and whenever the filtered list changes
// @Tags         invoices
// @Produce      text/event-stream
// @Success      200 {string} string "SSE stream"
// @Failure      503 {object} dto.Response
// @Router       /invoices/stream [get]
func (h *InvoiceStreamHandler) Stream(c *gin.Context) {
	var filter appreceivable.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if !h.acquireClient() {
		h.Unavailable(c, "Maximum number of stream connections reached")
		return
	}
	defer h.clients.Add(-1)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	log := logger.GetGinLogger(c)
	clientID := uuid.NewString()
	log.Info("Invoice stream connected", zap.String("client_id", clientID))

	ctx := c.Request.Context()
	snapshots := h.source.Subscribe(ctx, filter)

	sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, clientID, time.Now().Unix()),
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	var seq int64
	for {
		select {
		case <-ctx.Done():
			log.Info("Invoice stream disconnected", zap.String("client_id", clientID))
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			page, size := orDefault(filter.Page, filter.PageSize)
			data, err := json.Marshal(dto.NewSuccessResponseWithMeta(snap.Invoices, snap.Total, page, size))
			if err != nil {
				log.Error("Failed to marshal invoice snapshot", zap.Error(err))
				continue
			}
			seq++
			sendEvent(c.Writer, SSEMessage{Event: "snapshot", ID: strconv.FormatInt(seq, 10), Data: string(data)})
			c.Writer.Flush()
		case <-ticker.C:
			sendEvent(c.Writer, SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		}
	}
}

// ClientCount returns the number of connected subscribers
func (h *InvoiceStreamHandler) ClientCount() int {
	return int(h.clients.Load())
}

func sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
