package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/audiograph/studio-mcp/internal/catalog"
	"github.com/audiograph/studio-mcp/internal/studio"
)

// toolCallTimeout caps a single document round trip from an MCP tool handler.
const toolCallTimeout = 20 * time.Second

// requireConnectedSession resolves the current session and checks that its
// document sync is live. Every mutation and query path goes through here.
func requireConnectedSession(getSession func() *Session) (*Session, error) {
	if getSession == nil {
		return nil, fmt.Errorf("session getter function is not configured")
	}
	session := getSession()
	if session == nil || session.Document == nil {
		return nil, fmt.Errorf("no document is open; call initialize-session or open-document first")
	}
	if !session.Document.Connected() {
		return nil, fmt.Errorf("document is not connected; the sync connection is down or still starting")
	}
	return session, nil
}

func findEntity(entities []studio.Entity, entityID string) (studio.Entity, bool) {
	for _, entity := range entities {
		if entity.ID == entityID {
			return entity, true
		}
	}
	return studio.Entity{}, false
}

func fieldNames(entity studio.Entity) []string {
	names := make([]string, 0, len(entity.Fields))
	for name := range entity.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddEntityInput represents the MCP tool input for creating an entity.
type AddEntityInput struct {
	EntityType string         `json:"entityType" jsonschema:"device type to create; close misspellings are resolved against the catalog"`
	Properties map[string]any `json:"properties,omitempty" jsonschema:"initial field values for the new entity"`
	X          *float64       `json:"x,omitempty" jsonschema:"horizontal canvas position; auto-assigned when omitted"`
	Y          *float64       `json:"y,omitempty" jsonschema:"vertical canvas position; auto-assigned when omitted"`
}

// AddEntityResult represents the MCP tool output for creating an entity.
type AddEntityResult struct {
	ID         string  `json:"id" jsonschema:"identifier of the created entity"`
	EntityType string  `json:"entityType" jsonschema:"resolved device type that was created"`
	X          float64 `json:"x" jsonschema:"horizontal canvas position of the entity"`
	Y          float64 `json:"y" jsonschema:"vertical canvas position of the entity"`
	AutoPlaced bool    `json:"autoPlaced,omitempty" jsonschema:"whether the position was auto-assigned"`
}

// AddEntityTool defines the MCP tool schema for creating an entity.
func AddEntityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "add-entity",
		Description: "Creates a device entity in the open document. Coordinates are auto-assigned left to right when omitted so new devices never overlap.",
	}
}

// AddEntityHandler executes an entity create request.
func AddEntityHandler(getSession func() *Session, layout *AutoLayout, log zerolog.Logger) mcp.ToolHandlerFor[AddEntityInput, AddEntityResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AddEntityInput) (*mcp.CallToolResult, AddEntityResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, AddEntityResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		session, err := requireConnectedSession(getSession)
		if err != nil {
			return nil, AddEntityResult{}, err
		}

		resolved := catalog.Resolve(input.EntityType)
		if resolved == "" {
			return nil, AddEntityResult{}, fmt.Errorf("unknown entity type %q; valid types are: %s", input.EntityType, strings.Join(catalog.Types(), ", "))
		}
		if resolved != strings.TrimSpace(input.EntityType) {
			log.Info().
				Str("invocation_id", invocationID).
				Str("requested", input.EntityType).
				Str("resolved", resolved).
				Msg("entity type substituted")
		}

		fields := make(map[string]studio.FieldValue, len(input.Properties)+2)
		for name, raw := range input.Properties {
			value, err := studio.FieldValueOf(raw)
			if err != nil {
				return nil, AddEntityResult{}, fmt.Errorf("property %q: %w", name, err)
			}
			fields[name] = value
		}

		// The layout counter advances only when x is auto-assigned, so a
		// pinned horizontal position never consumes a slot.
		var x, y float64
		autoPlaced := input.X == nil || input.Y == nil
		if input.X == nil {
			x, y = layout.Next()
		} else {
			x = *input.X
		}
		if input.Y != nil {
			y = *input.Y
		}
		fields[studio.FieldPositionX] = studio.Number(x)
		fields[studio.FieldPositionY] = studio.Number(y)

		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()

		var entityID string
		err = session.Document.Modify(runCtx, func(tx *studio.Transaction) error {
			entityID = tx.CreateEntity(resolved, fields)
			return nil
		})
		if err != nil {
			return nil, AddEntityResult{}, fmt.Errorf("add entity failed: %w", err)
		}

		result := AddEntityResult{
			ID:         entityID,
			EntityType: resolved,
			X:          x,
			Y:          y,
			AutoPlaced: autoPlaced,
		}
		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), result, nil
	}
}

// RemoveEntityInput represents the MCP tool input for removing an entity.
type RemoveEntityInput struct {
	EntityID           string `json:"entityId" jsonschema:"identifier of the entity to remove"`
	RemoveDependencies bool   `json:"removeDependencies,omitempty" jsonschema:"also remove every entity that depends on this one, directly or transitively"`
}

// RemoveEntityResult represents the MCP tool output for removing an entity.
type RemoveEntityResult struct {
	RemovedIDs []string `json:"removedIds" jsonschema:"identifiers of all removed entities, target first"`
}

// RemoveEntityTool defines the MCP tool schema for removing an entity.
func RemoveEntityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "remove-entity",
		Description: "Removes an entity from the open document, optionally together with everything depending on it, in one transaction.",
	}
}

// RemoveEntityHandler executes an entity remove request.
func RemoveEntityHandler(getSession func() *Session) mcp.ToolHandlerFor[RemoveEntityInput, RemoveEntityResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RemoveEntityInput) (*mcp.CallToolResult, RemoveEntityResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, RemoveEntityResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		session, err := requireConnectedSession(getSession)
		if err != nil {
			return nil, RemoveEntityResult{}, err
		}

		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()

		entities, err := session.Document.QueryEntities(runCtx)
		if err != nil {
			return nil, RemoveEntityResult{}, fmt.Errorf("remove entity failed: %w", err)
		}
		if _, ok := findEntity(entities, input.EntityID); !ok {
			return nil, RemoveEntityResult{}, fmt.Errorf("no entity with id %q exists", input.EntityID)
		}

		removed := []string{input.EntityID}
		if input.RemoveDependencies {
			removed = dependencyClosure(entities, input.EntityID)
		}

		err = session.Document.Modify(runCtx, func(tx *studio.Transaction) error {
			for _, entityID := range removed {
				tx.RemoveEntity(entityID)
			}
			return nil
		})
		if err != nil {
			return nil, RemoveEntityResult{}, fmt.Errorf("remove entity failed: %w", err)
		}

		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), RemoveEntityResult{RemovedIDs: removed}, nil
	}
}

// dependencyClosure returns entityID together with every entity that
// transitively depends on it, target first and the rest in document order.
func dependencyClosure(entities []studio.Entity, entityID string) []string {
	doomed := map[string]bool{entityID: true}
	for changed := true; changed; {
		changed = false
		for _, entity := range entities {
			if doomed[entity.ID] {
				continue
			}
			for _, source := range entity.Inputs {
				if doomed[source] {
					doomed[entity.ID] = true
					changed = true
					break
				}
			}
		}
	}

	ordered := make([]string, 0, len(doomed))
	ordered = append(ordered, entityID)
	for _, entity := range entities {
		if entity.ID != entityID && doomed[entity.ID] {
			ordered = append(ordered, entity.ID)
		}
	}
	return ordered
}

// UpdateEntityValueInput represents the MCP tool input for setting a field.
type UpdateEntityValueInput struct {
	EntityID  string `json:"entityId" jsonschema:"identifier of the entity to update"`
	FieldName string `json:"fieldName" jsonschema:"name of an existing field on the entity"`
	Value     any    `json:"value" jsonschema:"new field value; number, text, or boolean"`
}

// UpdateEntityValueResult represents the MCP tool output for setting a field.
type UpdateEntityValueResult struct {
	EntityID  string `json:"entityId" jsonschema:"identifier of the updated entity"`
	FieldName string `json:"fieldName" jsonschema:"name of the updated field"`
}

// UpdateEntityValueTool defines the MCP tool schema for setting a field.
func UpdateEntityValueTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update-entity-value",
		Description: "Sets one field on an entity in the open document. The field must already exist on the entity; value ranges are enforced by the document itself.",
	}
}

// UpdateEntityValueHandler executes a field update request.
func UpdateEntityValueHandler(getSession func() *Session) mcp.ToolHandlerFor[UpdateEntityValueInput, UpdateEntityValueResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UpdateEntityValueInput) (*mcp.CallToolResult, UpdateEntityValueResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, UpdateEntityValueResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		session, err := requireConnectedSession(getSession)
		if err != nil {
			return nil, UpdateEntityValueResult{}, err
		}

		value, err := studio.FieldValueOf(input.Value)
		if err != nil {
			return nil, UpdateEntityValueResult{}, fmt.Errorf("value for field %q: %w", input.FieldName, err)
		}

		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()

		entities, err := session.Document.QueryEntities(runCtx)
		if err != nil {
			return nil, UpdateEntityValueResult{}, fmt.Errorf("update entity value failed: %w", err)
		}
		entity, ok := findEntity(entities, input.EntityID)
		if !ok {
			return nil, UpdateEntityValueResult{}, fmt.Errorf("no entity with id %q exists", input.EntityID)
		}
		if _, ok := entity.Fields[input.FieldName]; !ok {
			return nil, UpdateEntityValueResult{}, fmt.Errorf("entity %q has no field %q; available fields: %s", input.EntityID, input.FieldName, strings.Join(fieldNames(entity), ", "))
		}

		err = session.Document.Modify(runCtx, func(tx *studio.Transaction) error {
			tx.SetField(input.EntityID, input.FieldName, value)
			return nil
		})
		if err != nil {
			return nil, UpdateEntityValueResult{}, fmt.Errorf("update entity value failed: %w", err)
		}

		result := UpdateEntityValueResult{EntityID: input.EntityID, FieldName: input.FieldName}
		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), result, nil
	}
}

// UpdateEntityPositionInput represents the MCP tool input for moving an entity.
type UpdateEntityPositionInput struct {
	EntityID string  `json:"entityId" jsonschema:"identifier of the entity to move"`
	X        float64 `json:"x" jsonschema:"new horizontal canvas position"`
	Y        float64 `json:"y" jsonschema:"new vertical canvas position"`
}

// UpdateEntityPositionResult represents the MCP tool output for moving an entity.
type UpdateEntityPositionResult struct {
	EntityID string  `json:"entityId" jsonschema:"identifier of the moved entity"`
	X        float64 `json:"x" jsonschema:"horizontal canvas position after the move"`
	Y        float64 `json:"y" jsonschema:"vertical canvas position after the move"`
}

// UpdateEntityPositionTool defines the MCP tool schema for moving an entity.
func UpdateEntityPositionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update-entity-position",
		Description: "Moves an entity on the document canvas by updating both positional fields in one transaction.",
	}
}

// UpdateEntityPositionHandler executes a position update request.
func UpdateEntityPositionHandler(getSession func() *Session) mcp.ToolHandlerFor[UpdateEntityPositionInput, UpdateEntityPositionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UpdateEntityPositionInput) (*mcp.CallToolResult, UpdateEntityPositionResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, UpdateEntityPositionResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		session, err := requireConnectedSession(getSession)
		if err != nil {
			return nil, UpdateEntityPositionResult{}, err
		}

		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()

		entities, err := session.Document.QueryEntities(runCtx)
		if err != nil {
			return nil, UpdateEntityPositionResult{}, fmt.Errorf("update entity position failed: %w", err)
		}
		entity, ok := findEntity(entities, input.EntityID)
		if !ok {
			return nil, UpdateEntityPositionResult{}, fmt.Errorf("no entity with id %q exists", input.EntityID)
		}
		_, hasX := entity.Fields[studio.FieldPositionX]
		_, hasY := entity.Fields[studio.FieldPositionY]
		if !hasX || !hasY {
			return nil, UpdateEntityPositionResult{}, fmt.Errorf("entity %q is not placed on the canvas and cannot be moved", input.EntityID)
		}

		err = session.Document.Modify(runCtx, func(tx *studio.Transaction) error {
			tx.SetField(input.EntityID, studio.FieldPositionX, studio.Number(input.X))
			tx.SetField(input.EntityID, studio.FieldPositionY, studio.Number(input.Y))
			return nil
		})
		if err != nil {
			return nil, UpdateEntityPositionResult{}, fmt.Errorf("update entity position failed: %w", err)
		}

		result := UpdateEntityPositionResult{EntityID: input.EntityID, X: input.X, Y: input.Y}
		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), result, nil
	}
}

// ListEntitiesInput represents the MCP tool input for listing entities.
type ListEntitiesInput struct{}

// EntitySummary is one row of a list-entities result.
type EntitySummary struct {
	ID         string   `json:"id" jsonschema:"entity identifier"`
	EntityType string   `json:"type" jsonschema:"device type of the entity"`
	PositionX  *float64 `json:"positionX" jsonschema:"horizontal canvas position, null when the entity is not placed"`
	PositionY  *float64 `json:"positionY" jsonschema:"vertical canvas position, null when the entity is not placed"`
}

// ListEntitiesResult represents the MCP tool output for listing entities.
type ListEntitiesResult struct {
	Entities []EntitySummary `json:"entities" jsonschema:"catalog-typed entities in the document"`
	Message  string          `json:"message,omitempty" jsonschema:"set when the document has no entities"`
}

// ListEntitiesTool defines the MCP tool schema for listing entities.
func ListEntitiesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list-entities",
		Description: "Lists the catalog-typed entities in the open document with their canvas positions.",
	}
}

// ListEntitiesHandler executes an entity list request.
func ListEntitiesHandler(getSession func() *Session) mcp.ToolHandlerFor[ListEntitiesInput, ListEntitiesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListEntitiesInput) (*mcp.CallToolResult, ListEntitiesResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ListEntitiesResult{}, fmt.Errorf("generate invocation id: %w", err)
		}

		session, err := requireConnectedSession(getSession)
		if err != nil {
			return nil, ListEntitiesResult{}, err
		}

		runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()

		entities, err := session.Document.QueryEntities(runCtx)
		if err != nil {
			return nil, ListEntitiesResult{}, fmt.Errorf("list entities failed: %w", err)
		}

		summaries := make([]EntitySummary, 0, len(entities))
		for _, entity := range entities {
			if !catalog.IsValid(entity.Type) {
				continue
			}
			summary := EntitySummary{ID: entity.ID, EntityType: entity.Type}
			if x, ok := entity.Fields[studio.FieldPositionX].AsNumber(); ok {
				summary.PositionX = &x
			}
			if y, ok := entity.Fields[studio.FieldPositionY].AsNumber(); ok {
				summary.PositionY = &y
			}
			summaries = append(summaries, summary)
		}

		result := ListEntitiesResult{Entities: summaries}
		if len(summaries) == 0 {
			result.Message = "the document has no entities"
		}
		return CallToolResultWithMetadata(ToolCallMetadata{InvocationID: invocationID}), result, nil
	}
}
