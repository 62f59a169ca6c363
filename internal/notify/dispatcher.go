package notify

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
)

// Sender is the narrow capability the dispatcher needs to actually deliver
// a message; satisfied by *SMTPSender.
type Sender interface {
	Send(ctx context.Context, msg domain.Message) (messageID string, err error)
}

// Dispatcher drains the message outbox on a poll interval. The first tick
// is skipped: the first drain waits a uniform random delay in
// [1s, interval] so multiple replicas of mycelium-maild don't all wake in
// lockstep.
type Dispatcher struct {
	outbox       repository.OutboxRepository
	sender       Sender
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	perSendTO    time.Duration
}

// NewDispatcher builds a Dispatcher. logger defaults to slog.Default() when
// nil, following pkg/logger's process-wide default-logger convention.
func NewDispatcher(outbox repository.OutboxRepository, sender Sender, logger *slog.Logger, pollInterval time.Duration, batchSize, maxRetries int) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Dispatcher{
		outbox:       outbox,
		sender:       sender,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		perSendTO:    15 * time.Second,
	}
}

// Run blocks, polling until ctx is cancelled. Intended to be started as a
// goroutine from cmd/mycelium-maild's main, with ctx wired to the
// process's signal-derived cancellation.
func (d *Dispatcher) Run(ctx context.Context) {
	jitter := time.Second
	if d.pollInterval > time.Second {
		jitter += time.Duration(rand.Int63n(int64(d.pollInterval-time.Second) + 1))
	}
	timer := time.NewTimer(jitter)
	defer timer.Stop()

	d.logger.Info("notify dispatcher starting", "poll_interval", d.pollInterval, "initial_jitter", jitter)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notify dispatcher stopped")
			return
		case <-timer.C:
			if err := d.drainOnce(ctx); err != nil {
				d.logger.Error("notify drain error", "error", err)
			}
			timer.Reset(d.pollInterval)
		}
	}
}

func (d *Dispatcher) drainOnce(ctx context.Context) error {
	events, err := d.outbox.OldestPendingMessageEvents(ctx, d.batchSize)
	if err != nil {
		return err
	}
	for _, ev := range events {
		d.send(ctx, ev)
	}
	if len(events) > 0 {
		d.logger.Info("notify batch processed", "count", len(events))
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, ev domain.MessageSendingEvent) {
	sendCtx, cancel := context.WithTimeout(ctx, d.perSendTO)
	defer cancel()

	_, err := d.sender.Send(sendCtx, ev.Message)
	ev.Attempts++
	ev.Attempted = time.Now().UTC()

	if err != nil {
		ev.Error = err.Error()
		if ev.Attempts >= d.maxRetries {
			ev.Status = domain.MessageFailed
		} else {
			ev.Status = domain.MessagePending
		}
		d.logger.Error("message send failed", "id", ev.ID, "attempts", ev.Attempts, "error", err)
	} else {
		ev.Status = domain.MessageSent
		ev.Error = ""
		d.logger.Info("message sent", "id", ev.ID, "to_hash", domain.RedactEmail(ev.Message.To))
	}

	if uerr := d.outbox.UpdateMessageEvent(ctx, ev); uerr != nil {
		d.logger.Error("failed to persist message event status", "id", ev.ID, "error", uerr)
	}
}
