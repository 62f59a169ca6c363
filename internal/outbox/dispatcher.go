package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/repository"
	"github.com/lepista/mycelium/internal/security"
	"github.com/lepista/mycelium/internal/support"
)

// wireEvent is the JSON body subscribers receive:
// { "correspondenceId", "trigger", "payloadId", "payload" }.
type wireEvent struct {
	CorrespondenceID string          `json:"correspondenceId"`
	Trigger          string          `json:"trigger"`
	PayloadID        string          `json:"payloadId"`
	Payload          json.RawMessage `json:"payload"`
}

// Dispatcher drains WebhookDispatchEvent rows, claims each via a Leaser so
// concurrent mycelium-webhookd replicas don't double-deliver, signs and
// POSTs the payload to every active subscriber of its trigger, and applies
// retry/backoff on failure. Jittered first-tick delay mirrors
// internal/notify.Dispatcher's startup behavior.
type Dispatcher struct {
	outbox       repository.OutboxRepository
	webhooks     repository.WebHookRepository
	leaser       Leaser
	secretBox    *security.SecretBox
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	leaseTTL     time.Duration

	// backoffBase spaces retries: a failed event waits
	// base * 2^attempts (plus up to base of jitter) before its next
	// delivery attempt. Zero disables the wait; tests use that.
	backoffBase time.Duration

	// validateHost guards every delivery against SSRF; swapped out only by
	// tests that deliver to loopback listeners.
	validateHost func(host string) error
}

// NewDispatcher builds a Dispatcher. secretBox decrypts WebHook.Secret
// before signing, since WebHook.Secret is stored encrypted at rest (domain
// invariant, internal/domain/webhook.go).
func NewDispatcher(
	outbox repository.OutboxRepository,
	webhooks repository.WebHookRepository,
	leaser Leaser,
	secretBox *security.SecretBox,
	logger *slog.Logger,
	pollInterval time.Duration,
	batchSize, maxRetries int,
) *Dispatcher {
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
		webhooks:     webhooks,
		leaser:       leaser,
		secretBox:    secretBox,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		leaseTTL:     30 * time.Second,
		backoffBase:  time.Second,
		validateHost: support.ValidateEgressHost,
	}
}

// Run blocks, polling until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	jitter := time.Second
	if d.pollInterval > time.Second {
		jitter += time.Duration(rand.Int63n(int64(d.pollInterval-time.Second) + 1))
	}
	timer := time.NewTimer(jitter)
	defer timer.Stop()

	d.logger.Info("outbox dispatcher starting", "poll_interval", d.pollInterval, "initial_jitter", jitter)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-timer.C:
			if err := d.drainOnce(ctx); err != nil {
				d.logger.Error("outbox drain error", "error", err)
			}
			timer.Reset(d.pollInterval)
		}
	}
}

func (d *Dispatcher) drainOnce(ctx context.Context) error {
	events, err := d.outbox.OldestPendingWebhookEvents(ctx, d.batchSize)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if !d.dueForRetry(ev) {
			continue
		}
		leaseKey := ev.ID.String()
		acquired, err := d.leaser.Acquire(ctx, leaseKey, d.leaseTTL)
		if err != nil {
			d.logger.Error("lease acquire failed", "id", ev.ID, "error", err)
			continue
		}
		if !acquired {
			continue // another replica already owns this event
		}
		d.deliver(ctx, ev)
		if err := d.leaser.Release(ctx, leaseKey); err != nil {
			d.logger.Warn("lease release failed", "id", ev.ID, "error", err)
		}
	}
	if len(events) > 0 {
		d.logger.Info("outbox batch processed", "count", len(events))
	}
	return nil
}

// dueForRetry reports whether ev's exponential backoff window has elapsed.
// A never-attempted event is always due.
func (d *Dispatcher) dueForRetry(ev domain.WebhookDispatchEvent) bool {
	if ev.Attempts == 0 || d.backoffBase <= 0 {
		return true
	}
	wait := d.backoffBase << uint(ev.Attempts)
	wait += time.Duration(rand.Int63n(int64(d.backoffBase)))
	return time.Since(ev.Attempted) >= wait
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.WebhookDispatchEvent) {
	subscribers, err := d.webhooks.ListActiveByTrigger(ctx, ev.Trigger)
	if err != nil {
		d.finish(ctx, ev, fmt.Errorf("failed to list subscribers: %w", err))
		return
	}

	body, err := json.Marshal(wireEvent{
		CorrespondenceID: ev.CorrespondenceID.String(),
		Trigger:          string(ev.Trigger),
		PayloadID:        ev.PayloadID.String(),
		Payload:          ev.Payload,
	})
	if err != nil {
		d.finish(ctx, ev, fmt.Errorf("failed to marshal event: %w", err))
		return
	}

	var lastErr error
	for _, hook := range subscribers {
		if err := d.post(ctx, hook, body); err != nil {
			lastErr = err
			d.logger.Error("webhook delivery failed", "hook_id", hook.ID, "url_host", hook.URL, "error", err)
		}
	}
	d.finish(ctx, ev, lastErr)
}

func (d *Dispatcher) post(ctx context.Context, hook domain.WebHook, body []byte) error {
	if err := d.validateHost(hostOf(hook.URL)); err != nil {
		return fmt.Errorf("webhook url failed egress validation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if hook.Secret != "" && d.secretBox != nil {
		secret, err := d.secretBox.Decrypt(hook.Secret)
		if err != nil {
			return fmt.Errorf("failed to decrypt webhook secret: %w", err)
		}
		req.Header.Set("X-Hub-Signature-256", Sign([]byte(secret), body))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("subscriber returned status %d", resp.StatusCode)
	}
	return nil
}

func (d *Dispatcher) finish(ctx context.Context, ev domain.WebhookDispatchEvent, err error) {
	ev.Attempts++
	ev.Attempted = time.Now().UTC()
	if err != nil {
		ev.Error = err.Error()
		if ev.Attempts >= d.maxRetries {
			ev.Status = domain.DispatchFailed
		} else {
			ev.Status = domain.DispatchPending
		}
	} else {
		ev.Status = domain.DispatchSent
		ev.Error = ""
	}
	if uerr := d.outbox.UpdateWebhookEvent(ctx, ev); uerr != nil {
		d.logger.Error("failed to persist webhook event status", "id", ev.ID, "error", uerr)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
