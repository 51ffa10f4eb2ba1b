// Package mcp exposes the project coordinator as MCP tools over stdio, so
// agent clients can drive create/open/save and read project data the same way
// an attached UI would.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/playscribe/internal/bus"
	"github.com/hpungsan/playscribe/internal/config"
	"github.com/hpungsan/playscribe/internal/coordinator"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"project_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"project_open": {
		def:     openToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOpen },
	},
	"project_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"project_entities": {
		def:     entitiesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEntities },
	},
	"project_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"project_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the project tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(coord *coordinator.Coordinator, b *bus.Bus, db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"playscribe",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(coord, b, db, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(coord *coordinator.Coordinator, b *bus.Bus, db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(coord, b, db, cfg, version)
	return server.ServeStdio(s)
}

// Tool definitions

var createToolDef = mcp.NewTool("project_create",
	mcp.WithDescription("Create a fresh project from the empty-project template and make it the active project."),
	mcp.WithBoolean("flush_current",
		mcp.Description("Durably save the currently open project before the new one becomes active.")),
)

var openToolDef = mcp.NewTool("project_open",
	mcp.WithDescription("Open the project document at a path and make it the active project."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to a project document (.json).")),
	mcp.WithBoolean("flush_current",
		mcp.Description("Durably save the currently open project before the new one becomes active.")),
)

var saveToolDef = mcp.NewTool("project_save",
	mcp.WithDescription("Serialize the active project and write it to its canonical path."),
)

var entitiesToolDef = mcp.NewTool("project_entities",
	mcp.WithDescription("Read the active project's master entity list for one kind, name-ordered."),
	mcp.WithString("kind",
		mcp.Required(),
		mcp.Description("Entity kind: role, location, detail, or action_time.")),
)

var listToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List every project the catalog knows about, most recently saved first."),
)

var exportToolDef = mcp.NewTool("project_export",
	mcp.WithDescription("Render the active project to a standalone HTML document."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Destination file for the HTML document.")),
)
