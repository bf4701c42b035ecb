package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownEntity indicates that entity kind is not part of the supported set
	ErrUnknownEntity = errors.New("unknown entity kind")

	// ErrUnknownAction indicates that action is not one of create/update/delete
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnsupportedOperation indicates that (entity, action) pair has no remote operation
	ErrUnsupportedOperation = errors.New("unsupported entity/action combination")
)

// EntityKind identifies the domain a queued mutation targets.
type EntityKind string

const (
	EntityOrders          EntityKind = "orders"
	EntityCustomers       EntityKind = "customers"
	EntityInventory       EntityKind = "inventory"
	EntityInventoryLogs   EntityKind = "inventory_logs"
	EntityModifiers       EntityKind = "modifiers"
	EntityModifierOptions EntityKind = "modifier_options"
	EntityRecipes         EntityKind = "recipes"
	EntityPurchaseOrders  EntityKind = "purchase_orders"
	EntitySuppliers       EntityKind = "suppliers"
)

// EntityKinds returns the closed set of supported entity kinds in a stable order.
func EntityKinds() []EntityKind {
	return []EntityKind{
		EntityOrders,
		EntityCustomers,
		EntityInventory,
		EntityInventoryLogs,
		EntityModifiers,
		EntityModifierOptions,
		EntityRecipes,
		EntityPurchaseOrders,
		EntitySuppliers,
	}
}

// ParseEntityKind converts a string into EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	kind := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range EntityKinds() {
		if k == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

// Action is the kind of mutation.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ParseAction converts a string into Action (case-insensitive).
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionCreate:
		return ActionCreate, nil
	case ActionUpdate:
		return ActionUpdate, nil
	case ActionDelete:
		return ActionDelete, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// supportedActions lists the remote operations the backend exposes per entity.
var supportedActions = map[EntityKind][]Action{
	EntityOrders:          {ActionCreate, ActionUpdate},
	EntityCustomers:       {ActionCreate, ActionUpdate},
	EntityInventory:       {ActionCreate, ActionUpdate, ActionDelete},
	EntityInventoryLogs:   {ActionCreate},
	EntityModifiers:       {ActionCreate, ActionUpdate, ActionDelete},
	EntityModifierOptions: {ActionCreate, ActionUpdate, ActionDelete},
	EntityRecipes:         {ActionCreate, ActionUpdate, ActionDelete},
	EntityPurchaseOrders:  {ActionCreate, ActionUpdate},
	EntitySuppliers:       {ActionCreate, ActionUpdate, ActionDelete},
}

// Supports reports whether the backend has an operation for (kind, action).
func Supports(kind EntityKind, action Action) bool {
	for _, a := range supportedActions[kind] {
		if a == action {
			return true
		}
	}
	return false
}

// QueueKey is the storage key of a queued item.
// Format: zero-padded storage sequence number, dash, random suffix.
// Lexicographic order of keys equals enqueue order regardless of the wall clock.
type QueueKey string

// NewQueueKey builds the key for the item that received sequence number seq.
func NewQueueKey(seq uint64) QueueKey {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return QueueKey(fmt.Sprintf("%020d-%s", seq, suffix))
}

// Mutation is what callers hand to the queue: everything except bookkeeping fields.
type Mutation struct {
	Payload Payload    // nil for deletes
	ID      string     // идентификатор целевой записи
	Kind    EntityKind // домен
	Action  Action
}

// Validate checks that mutation is structurally sound and routable.
func (m Mutation) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("mutation id is required")
	}
	if _, err := ParseEntityKind(string(m.Kind)); err != nil {
		return err
	}
	if _, err := ParseAction(string(m.Action)); err != nil {
		return err
	}
	if !Supports(m.Kind, m.Action) {
		return fmt.Errorf("%w: %s/%s", ErrUnsupportedOperation, m.Kind, m.Action)
	}
	if m.Action == ActionDelete {
		return nil
	}
	if m.Payload == nil {
		return fmt.Errorf("payload is required for %s %s", m.Action, m.Kind)
	}
	if m.Payload.Kind() != m.Kind {
		return fmt.Errorf("payload kind %q does not match mutation kind %q", m.Payload.Kind(), m.Kind)
	}
	return nil
}

// QueueItem is a pending mutation persisted in the durable queue.
// Only RetryCount may change while the item is stored.
//
// ReadErr is never persisted. Storage sets it on a listed item whose stored
// value could not be read back; such an item carries only Key.
type QueueItem struct {
	EnqueuedAt time.Time
	Payload    Payload
	ReadErr    error
	Key        QueueKey
	ID         string
	Kind       EntityKind
	Action     Action
	RetryCount int
}

// Mutation returns the caller-facing part of the item.
func (q *QueueItem) Mutation() Mutation {
	return Mutation{ID: q.ID, Kind: q.Kind, Action: q.Action, Payload: q.Payload}
}

// queueItemJSON is the persisted representation of QueueItem
type queueItemJSON struct {
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Key        QueueKey        `json:"key"`
	ID         string          `json:"id"`
	Kind       EntityKind      `json:"entity_kind"`
	Action     Action          `json:"action"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RetryCount int             `json:"retry_count"`
}

// MarshalJSON encodes the typed payload as a raw JSON object.
func (q QueueItem) MarshalJSON() ([]byte, error) {
	raw := queueItemJSON{
		EnqueuedAt: q.EnqueuedAt,
		Key:        q.Key,
		ID:         q.ID,
		Kind:       q.Kind,
		Action:     q.Action,
		RetryCount: q.RetryCount,
	}
	if q.Payload != nil {
		data, err := json.Marshal(q.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw.Payload = data
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes the payload into the variant selected by entity kind.
func (q *QueueItem) UnmarshalJSON(data []byte) error {
	var raw queueItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var payload Payload
	if len(raw.Payload) > 0 && string(raw.Payload) != "null" {
		p, err := DecodePayload(raw.Kind, raw.Payload)
		if err != nil {
			return err
		}
		payload = p
	}

	*q = QueueItem{
		EnqueuedAt: raw.EnqueuedAt,
		Key:        raw.Key,
		ID:         raw.ID,
		Kind:       raw.Kind,
		Action:     raw.Action,
		Payload:    payload,
		RetryCount: raw.RetryCount,
	}
	return nil
}

// DeadLetter is a queue item that was taken out of the drain rotation.
type DeadLetter struct {
	FailedAt time.Time `json:"failed_at"`
	Reason   string    `json:"reason"`
	Item     QueueItem `json:"item"`
}
