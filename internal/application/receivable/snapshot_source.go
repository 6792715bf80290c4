package receivable

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// InvoiceSnapshot is one observation of an invoice list query
type InvoiceSnapshot struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int64             `json:"total"`
	TakenAt  time.Time         `json:"taken_at"`
}

// SnapshotSource streams invoice list snapshots by polling. A snapshot is
// emitted on subscribe and then whenever the result set changes.
type SnapshotSource struct {
	invoices *InvoiceService
	interval time.Duration
	logger   *zap.Logger
}

// NewSnapshotSource creates a polling snapshot source
func NewSnapshotSource(invoices *InvoiceService, interval time.Duration, logger *zap.Logger) *SnapshotSource {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotSource{invoices: invoices, interval: interval, logger: logger}
}

// Subscribe returns a channel of snapshots for filter. The channel is closed
// when ctx is done. Slow readers miss intermediate snapshots, never the
// latest one.
func (s *SnapshotSource) Subscribe(ctx context.Context, filter InvoiceListFilter) <-chan InvoiceSnapshot {
	out := make(chan InvoiceSnapshot, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		var last string
		for {
			snap, err := s.take(ctx, filter)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("Invoice snapshot failed", zap.Error(err))
			} else if fp := fingerprint(snap); fp != last {
				last = fp
				select {
				case <-out:
				default:
				}
				out <- snap
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

func (s *SnapshotSource) take(ctx context.Context, filter InvoiceListFilter) (InvoiceSnapshot, error) {
	items, total, err := s.invoices.ListInvoices(ctx, filter)
	if err != nil {
		return InvoiceSnapshot{}, err
	}
	return InvoiceSnapshot{Invoices: items, Total: total, TakenAt: time.Now().UTC()}, nil
}

// fingerprint identifies a result set by member ids and versions
func fingerprint(snap InvoiceSnapshot) string {
	b := make([]byte, 0, len(snap.Invoices)*40)
	for _, inv := range snap.Invoices {
		b = append(b, inv.ID.String()...)
		b = append(b, '@')
		b = strconv.AppendInt(b, int64(inv.Version), 10)
		b = append(b, ';')
	}
	return string(b)
}
