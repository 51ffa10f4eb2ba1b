package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/playscribe/internal/bus"
	"github.com/hpungsan/playscribe/internal/catalog"
	"github.com/hpungsan/playscribe/internal/config"
	"github.com/hpungsan/playscribe/internal/coordinator"
	"github.com/hpungsan/playscribe/internal/entity"
	"github.com/hpungsan/playscribe/internal/errors"
	"github.com/hpungsan/playscribe/internal/export"
)

// settleTimeout bounds how long a tool call waits for its operation to
// settle. File I/O on a local workspace settles in milliseconds; the bound
// only guards a wedged worker.
const settleTimeout = 30 * time.Second

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	coord *coordinator.Coordinator
	bus   *bus.Bus
	db    *sql.DB
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(coord *coordinator.Coordinator, b *bus.Bus, db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{coord: coord, bus: b, db: db, cfg: cfg}
}

// Request types for each tool

// CreateRequest represents the arguments for project_create.
type CreateRequest struct {
	FlushCurrent bool `json:"flush_current,omitempty"`
}

// OpenRequest represents the arguments for project_open.
type OpenRequest struct {
	Path         string `json:"path"`
	FlushCurrent bool   `json:"flush_current,omitempty"`
}

// EntitiesRequest represents the arguments for project_entities.
type EntitiesRequest struct {
	Kind string `json:"kind"`
}

// ExportRequest represents the arguments for project_export.
type ExportRequest struct {
	Path string `json:"path"`
}

// decode unmarshals MCP request arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	b, err := json.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// await issues op and blocks until the coordinator settles it.
func (h *Handlers) await(op func() error) error {
	w := coordinator.NewWaiter(h.bus)
	defer w.Close()

	if err := op(); err != nil {
		return err
	}
	info, err := w.Wait(settleTimeout)
	if err != nil {
		return err
	}
	return info.Err
}

// projectStatus summarizes the active project for tool replies.
type projectStatus struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
	Notes   int    `json:"notes"`
}

func (h *Handlers) status() (*projectStatus, error) {
	p := h.coord.Snapshot()
	if p == nil {
		return nil, errors.NewNotFound("no open project")
	}
	return &projectStatus{
		Name:    p.Name,
		Version: p.Version,
		Path:    h.coord.CanonicalPath(),
		Notes:   len(p.Script.Notes),
	}, nil
}

// Handler implementations

// HandleCreate handles the project_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.await(func() error { return h.coord.Create(input.FlushCurrent) }); err != nil {
		return errorResult(err), nil
	}

	status, err := h.status()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(status)
}

// HandleOpen handles the project_open tool call.
func (h *Handlers) HandleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OpenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Path == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	if err := h.await(func() error { return h.coord.Load(input.Path, input.FlushCurrent) }); err != nil {
		return errorResult(err), nil
	}

	status, err := h.status()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(status)
}

// HandleSave handles the project_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.await(h.coord.Save); err != nil {
		return errorResult(err), nil
	}

	status, err := h.status()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(status)
}

// HandleEntities handles the project_entities tool call.
func (h *Handlers) HandleEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EntitiesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	kind := entity.Kind(input.Kind)
	if !entity.IsGeneric(kind) {
		return errorResult(errors.NewInvalidRequest("kind must be one of: role, location, detail, action_time")), nil
	}

	list, err := h.coord.Entities(kind)
	if err != nil {
		return errorResult(err), nil
	}

	type item struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	items := make([]item, len(list))
	for i, g := range list {
		items[i] = item{Name: g.Name, Description: g.Description}
	}
	return successResult(map[string]any{"kind": input.Kind, "items": items})
}

// HandleList handles the project_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.db == nil {
		return errorResult(errors.NewNotFound("project catalog unavailable")), nil
	}
	entries, err := catalog.List(h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"projects": entries})
}

// HandleExport handles the project_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Path == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	p := h.coord.Snapshot()
	if p == nil {
		return errorResult(errors.NewNotFound("no open project")), nil
	}
	if err := export.WriteFile(p, input.Path); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"path": input.Path})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if psErr, ok := err.(*errors.PlayscribeError); ok && psErr.Code != errors.ErrInternal {
		payload = map[string]any{
			"error": map[string]any{
				"code":    psErr.Code,
				"message": psErr.Message,
			},
		}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
