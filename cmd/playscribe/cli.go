package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/playscribe/internal/bus"
	"github.com/hpungsan/playscribe/internal/catalog"
	"github.com/hpungsan/playscribe/internal/config"
	"github.com/hpungsan/playscribe/internal/coordinator"
	"github.com/hpungsan/playscribe/internal/entity"
	"github.com/hpungsan/playscribe/internal/errors"
	"github.com/hpungsan/playscribe/internal/export"
)

// cliSettleTimeout bounds how long a one-shot command waits for its operation.
const cliSettleTimeout = 30 * time.Second

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "playscribe",
		Usage:   "Screenwriting project store",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(db, cfg),
			openCmd(db, cfg),
			showCmd(db, cfg),
			projectsCmd(db),
			latestCmd(db),
			exportCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// session wires a one-shot coordinator for a single CLI command. Autosave is
// disabled; the command issues exactly the operations it needs and waits for
// each to settle.
type session struct {
	bus    *bus.Bus
	coord  *coordinator.Coordinator
	waiter *coordinator.Waiter
}

func newSession(db *sql.DB, cfg *config.Config) *session {
	oneShot := *cfg
	oneShot.AutosaveSeconds = 0
	b := bus.New(nil)
	return &session{
		bus:    b,
		coord:  coordinator.New(&oneShot, b, db, nil),
		waiter: coordinator.NewWaiter(b),
	}
}

func (s *session) close() {
	s.waiter.Close()
	s.coord.Dispose()
}

// run issues op and blocks until the operation settles.
func (s *session) run(op func() error) error {
	if err := op(); err != nil {
		return err
	}
	info, err := s.waiter.Wait(cliSettleTimeout)
	if err != nil {
		return err
	}
	return info.Err
}

// summary is the JSON shape printed for a loaded or created project.
type summary struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Path        string   `json:"path"`
	Roles       int      `json:"roles"`
	Locations   int      `json:"locations"`
	Details     int      `json:"details"`
	ActionTimes int      `json:"action_times"`
	Notes       []string `json:"notes"`
}

func summarize(s *session) (*summary, error) {
	p := s.coord.Snapshot()
	if p == nil {
		return nil, errors.NewNotFound("no open project")
	}
	out := &summary{
		Name:        p.Name,
		Version:     p.Version,
		Path:        s.coord.CanonicalPath(),
		Roles:       len(p.Roles),
		Locations:   len(p.Locations),
		Details:     len(p.Details),
		ActionTimes: len(p.ActionTimes),
		Notes:       make([]string, 0, len(p.Script.Notes)),
	}
	for _, n := range p.Script.Notes {
		out.Notes = append(out.Notes, n.Title)
	}
	return out, nil
}

// createCmd creates the create command.
func createCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a fresh project from the empty-project template",
		Action: func(c *cli.Context) error {
			s := newSession(db, cfg)
			defer s.close()

			if err := s.run(func() error { return s.coord.Create(false) }); err != nil {
				return outputError(err)
			}
			out, err := summarize(s)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// openCmd creates the open command.
func openCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a project document and record it in the catalog",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("open requires a project path"))
			}
			s := newSession(db, cfg)
			defer s.close()

			if err := s.run(func() error { return s.coord.Load(c.Args().First(), false) }); err != nil {
				return outputError(err)
			}
			out, err := summarize(s)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one master entity list of a project, name-ordered",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "role", Usage: "Entity kind: role|location|detail|action_time"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("show requires a project path"))
			}
			kind := entity.Kind(c.String("kind"))
			if !entity.IsGeneric(kind) {
				return outputError(errors.NewInvalidRequest("kind must be one of: role, location, detail, action_time"))
			}

			s := newSession(db, cfg)
			defer s.close()

			if err := s.run(func() error { return s.coord.Load(c.Args().First(), false) }); err != nil {
				return outputError(err)
			}
			list, err := s.coord.Entities(kind)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"kind": kind, "items": list})
		},
	}
}

// projectsCmd creates the projects command.
func projectsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List every project in the catalog, most recently saved first",
		Action: func(c *cli.Context) error {
			entries, err := catalog.List(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"projects": entries})
		},
	}
}

// latestCmd creates the latest command.
func latestCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Print the most recently saved project",
		Action: func(c *cli.Context) error {
			entry, err := catalog.Latest(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(entry)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Render a project to a standalone HTML document",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Destination HTML file"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("export requires a project path"))
			}
			s := newSession(db, cfg)
			defer s.close()

			if err := s.run(func() error { return s.coord.Load(c.Args().First(), false) }); err != nil {
				return outputError(err)
			}
			if err := export.WriteFile(s.coord.Snapshot(), c.String("out")); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"out": c.String("out")})
		},
	}
}

// Output helpers

// outputJSON prints v as indented JSON on stdout.
func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// outputError prints a structured error object on stdout and returns the
// error so the process exits non-zero.
func outputError(err error) error {
	payload := map[string]any{
		"error": map[string]any{
			"code":    errors.ErrInternal,
			"message": err.Error(),
		},
	}
	if psErr, ok := err.(*errors.PlayscribeError); ok {
		payload["error"] = map[string]any{
			"code":    psErr.Code,
			"message": psErr.Message,
		}
	}
	data, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Println(string(data))
	return err
}
