package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal/graph"
)

// EventSource delivers vendor change notifications. Implementations close
// the channel when no more notifications will arrive.
type EventSource interface {
	Events() <-chan graph.Notification
}

// EventSink receives the canonical events the translator produces.
type EventSink interface {
	Publish(ctx context.Context, event *metabridge.InstanceEvent) error
}

// EventTranslator turns one vendor notification into the canonical events it
// implies. A notification about a vendor entity fans out across every prefix
// projection of its type, and an entity creation additionally announces its
// generated relationships, which the vendor will never notify about itself.
type EventTranslator struct {
	store  *TypeStore
	mapper *InstanceMapper
}

// NewEventTranslator wires a translator over the shared registry and mapper.
func NewEventTranslator(store *TypeStore, mapper *InstanceMapper) *EventTranslator {
	return &EventTranslator{store: store, mapper: mapper}
}

// Translate produces the canonical events for one vendor notification.
// Untranslatable payloads yield no events rather than an error: the consumer
// loop must survive any single notification.
func (t *EventTranslator) Translate(ctx context.Context, n graph.Notification) []*metabridge.InstanceEvent {
	eventTime := time.Now().UTC()
	if n.EventTime != 0 {
		eventTime = time.UnixMilli(n.EventTime).UTC()
	}

	switch n.OperationType {
	case graph.OpEntityCreate, graph.OpEntityUpdate, graph.OpEntityDelete,
		graph.OpClassificationAdd, graph.OpClassificationUpdate, graph.OpClassificationDelete:
		return t.entityEvents(ctx, n, eventTime)
	case graph.OpRelationshipCreate, graph.OpRelationshipUpdate, graph.OpRelationshipDelete:
		return t.relationshipEvents(ctx, n, eventTime)
	default:
		zap.S().Debugw("unrecognized vendor notification, dropping", "operationType", n.OperationType)
		return nil
	}
}

func (t *EventTranslator) entityEvents(ctx context.Context, n graph.Notification, eventTime time.Time) []*metabridge.InstanceEvent {
	if n.Entity == nil {
		zap.S().Warnw("entity notification without entity payload", "operationType", n.OperationType)
		return nil
	}
	eventType, ok := entityEventType(n.OperationType)
	if !ok {
		return nil
	}

	var out []*metabridge.InstanceEvent
	for _, prefix := range t.store.PrefixesForVendorType(n.Entity.TypeName) {
		detail := t.mapper.EntityDetailFromVendor(n.Entity, prefix)
		if detail == nil {
			continue
		}
		out = append(out, &metabridge.InstanceEvent{
			EventID: uuid.NewString(),
			Type:    eventType,
			Time:    eventTime,
			Entity:  detail,
		})
	}

	if n.OperationType == graph.OpEntityCreate {
		rels, err := t.mapper.generatedRelationships(n.Entity)
		if err != nil {
			zap.S().Warnw("generated relationship synthesis failed for event",
				"guid", n.Entity.GUID, "err", err)
		}
		for _, rel := range rels {
			out = append(out, &metabridge.InstanceEvent{
				EventID:      uuid.NewString(),
				Type:         metabridge.EventNewRelationship,
				Time:         eventTime,
				Relationship: rel,
			})
		}
	}
	return out
}

func (t *EventTranslator) relationshipEvents(ctx context.Context, n graph.Notification, eventTime time.Time) []*metabridge.InstanceEvent {
	if n.Relationship == nil {
		zap.S().Warnw("relationship notification without relationship payload", "operationType", n.OperationType)
		return nil
	}
	rel, err := t.mapper.RelationshipFromVendor(ctx, n.Relationship)
	if err != nil {
		zap.S().Warnw("relationship translation failed for event",
			"guid", n.Relationship.GUID, "err", err)
		return nil
	}
	if rel == nil {
		return nil
	}

	eventType := metabridge.EventNewRelationship
	switch n.OperationType {
	case graph.OpRelationshipUpdate:
		eventType = metabridge.EventUpdatedRelationship
	case graph.OpRelationshipDelete:
		eventType = metabridge.EventDeletedRelationship
	}
	return []*metabridge.InstanceEvent{{
		EventID:      uuid.NewString(),
		Type:         eventType,
		Time:         eventTime,
		Relationship: rel,
	}}
}

func entityEventType(op string) (metabridge.InstanceEventType, bool) {
	switch op {
	case graph.OpEntityCreate:
		return metabridge.EventNewEntity, true
	case graph.OpEntityUpdate:
		return metabridge.EventUpdatedEntity, true
	case graph.OpEntityDelete:
		return metabridge.EventDeletedEntity, true
	case graph.OpClassificationAdd:
		return metabridge.EventClassifiedEntity, true
	case graph.OpClassificationUpdate:
		return metabridge.EventReclassifiedEntity, true
	case graph.OpClassificationDelete:
		return metabridge.EventDeclassifiedEntity, true
	default:
		return "", false
	}
}

// ChannelSource is a buffered in-process event source; the webhook endpoint
// pushes into it and the consumer drains it.
type ChannelSource struct {
	ch chan graph.Notification
}

// NewChannelSource creates a source with the given buffer size.
func NewChannelSource(buffer int) *ChannelSource {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSource{ch: make(chan graph.Notification, buffer)}
}

// Push enqueues a notification; it reports false when the buffer is full so
// the caller can signal backpressure instead of blocking.
func (s *ChannelSource) Push(n graph.Notification) bool {
	select {
	case s.ch <- n:
		return true
	default:
		return false
	}
}

// Close stops the source after previously pushed notifications drain.
func (s *ChannelSource) Close() { close(s.ch) }

func (s *ChannelSource) Events() <-chan graph.Notification { return s.ch }

// LogSink publishes canonical events to the structured log. It stands in for
// the federation event bus, which lives outside this adapter.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, event *metabridge.InstanceEvent) error {
	fields := []any{"eventId", event.EventID, "type", event.Type}
	if event.Entity != nil {
		fields = append(fields, "entityGuid", event.Entity.ID.String(), "entityType", event.Entity.TypeName)
	}
	if event.Relationship != nil {
		fields = append(fields, "relationshipGuid", event.Relationship.ID.String(), "relationshipType", event.Relationship.TypeName)
	}
	zap.S().Infow("instance event", fields...)
	return nil
}

// Consumer drains an event source, translating each notification and
// publishing the results. Per-notification failures are logged and the loop
// keeps going; only context cancellation or source exhaustion stops it.
type Consumer struct {
	source     EventSource
	sink       EventSink
	translator *EventTranslator
}

// NewConsumer wires the consumer loop.
func NewConsumer(source EventSource, sink EventSink, translator *EventTranslator) *Consumer {
	return &Consumer{source: source, sink: sink, translator: translator}
}

// Run blocks until the context is done or the source channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-c.source.Events():
			if !ok {
				return nil
			}
			for _, event := range c.translator.Translate(ctx, n) {
				if err := c.sink.Publish(ctx, event); err != nil {
					zap.S().Errorw("event publish failed",
						"eventId", event.EventID, "type", event.Type, "err", err)
				}
			}
		}
	}
}
