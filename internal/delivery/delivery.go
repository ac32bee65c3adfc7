package delivery

import (
	"context"
	"log/slog"
	"sync"
)

// ChannelKind identifies a side channel.
type ChannelKind string

const (
	ChannelEmail ChannelKind = "email"
	ChannelSMS   ChannelKind = "sms"
	ChannelPush  ChannelKind = "push"
)

// Job is one side-channel delivery attempt. Failures are logged and
// dropped; the notification row is the source of truth either way.
type Job struct {
	Kind    ChannelKind
	To      string
	Subject string
	Body    string
}

// SideChannels is what the notification dispatcher uses to reach members
// outside the in-app feed.
type SideChannels interface {
	EnqueueEmail(to, subject, body string) error
	EnqueueSMS(to, message string) error
	Push(userID, title, body string) error
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("delivery worker processing job", "worker_id", w.ID, "kind", job.Kind, "to", job.To)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("delivery worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}
