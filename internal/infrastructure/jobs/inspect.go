package jobs

import (
	"errors"

	"github.com/hibiken/asynq"
)

// QueueStat is a point-in-time count of tasks in one queue.
type QueueStat struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Paused    bool   `json:"paused"`
}

// QueueStats reports every ledger queue. A queue that has never received
// a task reports zero counts.
func QueueStats(inspector *asynq.Inspector) ([]QueueStat, error) {
	out := make([]QueueStat, 0, 2)
	for _, q := range []string{QueueDocuments, QueueDefault} {
		info, err := inspector.GetQueueInfo(q)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			out = append(out, QueueStat{Queue: q})
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, QueueStat{
			Queue:     q,
			Pending:   info.Pending,
			Active:    info.Active,
			Scheduled: info.Scheduled,
			Retry:     info.Retry,
			Archived:  info.Archived,
			Paused:    info.Paused,
		})
	}
	return out, nil
}
