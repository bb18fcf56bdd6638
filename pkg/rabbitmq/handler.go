package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"uptimeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ProcessFunc handles the payload of one event type. An apperror of kind
// InvalidInput dead-letters the message, any other error requeues it once.
type ProcessFunc func(ctx context.Context, eventID uuid.UUID, payload json.RawMessage) error

type EventHandler struct {
	processors map[string]ProcessFunc
	logger     *zerolog.Logger
}

func NewEventHandler(logger *zerolog.Logger) *EventHandler {
	return &EventHandler{
		processors: make(map[string]ProcessFunc),
		logger:     logger,
	}
}

// On registers fn for eventType. Registering twice replaces the earlier one.
func (h *EventHandler) On(eventType string, fn ProcessFunc) *EventHandler {
	h.processors[eventType] = fn
	return h
}

func (h *EventHandler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	var event EventPayload
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return apperror.New(apperror.InvalidInput, "rabbitmq.handler.decode", err)
	}

	process, ok := h.processors[event.Type]
	if !ok {
		h.logger.Debug().Str("type", event.Type).Str("event_id", event.ID.String()).Msg("ignoring unknown event type")
		return nil
	}

	if err := process(ctx, event.ID, event.Payload); err != nil {
		return fmt.Errorf("process %s event %s: %w", event.Type, event.ID, err)
	}
	return nil
}
