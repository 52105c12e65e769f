package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/sovereignos/guard/internal/egress"
	apperrors "github.com/sovereignos/guard/internal/errors"
	"github.com/sovereignos/guard/internal/outbox/domain"
)

// DefaultEventProcessor logs security events. It is the delivery backend when
// no event sink is configured.
type DefaultEventProcessor struct {
	logger *slog.Logger
}

// NewDefaultEventProcessor creates a new DefaultEventProcessor.
func NewDefaultEventProcessor(logger *slog.Logger) *DefaultEventProcessor {
	return &DefaultEventProcessor{
		logger: logger,
	}
}

// Process writes one structured log line per security event.
func (p *DefaultEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return apperrors.Wrap(err, "failed to parse event payload")
	}

	switch event.EventType {
	case domain.EventTypeCapabilityIssued,
		domain.EventTypeCapabilityDelegated,
		domain.EventTypeCapabilityConsumed,
		domain.EventTypeClientCreated,
		domain.EventTypeClientUpdated:
		if p.logger != nil {
			p.logger.Info("security event",
				slog.String("event_type", event.EventType),
				slog.Any("payload", payload),
			)
		}
	default:
		if p.logger != nil {
			p.logger.Warn("unknown event type", slog.String("event_type", event.EventType))
		}
	}

	return nil
}

// WebhookEventProcessor POSTs security events to a configured sink URL. The
// sink URL passes through the egress guard before every send: a DNS record
// that later starts resolving to a private address stops deliveries instead
// of turning the processor into an SSRF vector.
type WebhookEventProcessor struct {
	sinkURL string
	guard   *egress.Guard
	client  *http.Client
	logger  *slog.Logger
}

// NewWebhookEventProcessor creates a webhook event processor delivering to sinkURL.
func NewWebhookEventProcessor(
	sinkURL string,
	guard *egress.Guard,
	client *http.Client,
	logger *slog.Logger,
) *WebhookEventProcessor {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookEventProcessor{
		sinkURL: sinkURL,
		guard:   guard,
		client:  client,
		logger:  logger,
	}
}

// webhookEnvelope is the wire shape of a delivered event.
type webhookEnvelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// Process delivers one event to the sink. Non-2xx responses are failures so
// the outbox retry accounting applies.
func (p *WebhookEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	validated, err := p.guard.ValidateURL(ctx, p.sinkURL)
	if err != nil {
		return apperrors.Wrap(err, "event sink url rejected by egress policy")
	}

	body, err := json.Marshal(webhookEnvelope{
		ID:        event.ID.String(),
		EventType: event.EventType,
		Payload:   json.RawMessage(event.Payload),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, validated, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, "failed to build event sink request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "failed to deliver event")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.New("event sink returned status " + resp.Status)
	}

	if p.logger != nil {
		p.logger.Debug("event delivered",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
		)
	}
	return nil
}
