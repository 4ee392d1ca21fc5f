package studio

import "github.com/audiograph/studio-mcp/internal/id"

// OpKind identifies one edit inside a transaction.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpRemove OpKind = "remove"
	OpSet    OpKind = "set"
)

// Op is a single document edit. A transaction's ops are applied by the
// remote document as one unit.
type Op struct {
	Kind       OpKind                `json:"op"`
	EntityID   string                `json:"entity_id,omitempty"`
	EntityType string                `json:"entity_type,omitempty"`
	Fields     map[string]FieldValue `json:"fields,omitempty"`
	Field      string                `json:"field,omitempty"`
	Value      *FieldValue           `json:"value,omitempty"`
}

// Transaction collects edits to be submitted atomically. It is only valid
// inside the function passed to Document.Modify.
type Transaction struct {
	ops []Op
	err error
}

// CreateEntity queues entity creation and returns the client-assigned id the
// entity will carry.
func (t *Transaction) CreateEntity(entityType string, fields map[string]FieldValue) string {
	entityID, err := id.New()
	if err != nil {
		t.err = err
		return ""
	}
	t.ops = append(t.ops, Op{
		Kind:       OpCreate,
		EntityID:   entityID,
		EntityType: entityType,
		Fields:     fields,
	})
	return entityID
}

// RemoveEntity queues entity removal.
func (t *Transaction) RemoveEntity(entityID string) {
	t.ops = append(t.ops, Op{Kind: OpRemove, EntityID: entityID})
}

// SetField queues a single field update.
func (t *Transaction) SetField(entityID, field string, value FieldValue) {
	t.ops = append(t.ops, Op{Kind: OpSet, EntityID: entityID, Field: field, Value: &value})
}

// Ops returns the queued edits.
func (t *Transaction) Ops() []Op {
	return t.ops
}
