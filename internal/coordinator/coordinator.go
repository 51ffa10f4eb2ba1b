// Package coordinator owns the live project and turns broker results into
// bus events. It is the only writer of the live entity graph's identity: the
// project instance is replaced wholesale on create/load and serialized at
// send time for every save, so the background worker never sees a live
// entity.
package coordinator

import (
	"database/sql"
	_ "embed"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/playscribe/internal/broker"
	"github.com/hpungsan/playscribe/internal/bus"
	"github.com/hpungsan/playscribe/internal/catalog"
	"github.com/hpungsan/playscribe/internal/config"
	"github.com/hpungsan/playscribe/internal/entity"
	"github.com/hpungsan/playscribe/internal/errors"
)

//go:embed template.json
var defaultTemplate []byte

// State is the coordinator's operation state.
type State string

const (
	StateIdle        State = "idle"
	StateBusy        State = "busy"
	StateTerminating State = "terminating"
)

// UpdateInfo is the DataUpdated payload: the current live project and whether
// the update was caused by an explicit user load/create (as opposed to a
// routine save or autosave tick).
type UpdateInfo struct {
	Project       *entity.Project
	UserInitiated bool
}

// SettleInfo is the OperationSettled payload. Err is nil on success.
type SettleInfo struct {
	OpID    string
	Command broker.Command
	Err     error
}

// Coordinator orchestrates create/load/save/exit over one broker and
// publishes the resulting events. One instance exists per application run;
// construct it explicitly and pass it by reference so tests can run isolated
// copies.
type Coordinator struct {
	cfg *config.Config
	bus *bus.Bus
	db  *sql.DB // project catalog, may be nil
	log *slog.Logger
	brk *broker.Broker

	mu            sync.Mutex
	project       *entity.Project
	canonicalPath string
	state         State
	disposed      bool

	autosaveStop chan struct{}
	autosaveDone chan struct{}
}

// New creates a coordinator over the given bus. db is the optional project
// catalog; a nil logger falls back to slog.Default(). The autosave timer
// starts immediately when the config sets a positive interval.
func New(cfg *config.Config, b *bus.Bus, db *sql.DB, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{
		cfg:   cfg,
		bus:   b,
		db:    db,
		log:   log,
		state: StateIdle,
	}
	c.brk = broker.New(c.handleUpdate, c.handleSpawnFault)

	if cfg.AutosaveSeconds > 0 {
		c.autosaveStop = make(chan struct{})
		c.autosaveDone = make(chan struct{})
		go c.autosaveLoop(time.Duration(cfg.AutosaveSeconds) * time.Second)
	}
	return c
}

// State returns the current operation state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mutate applies fn to the live project under the coordinator's lock. All
// entity mutation between operations goes through here; the worker only ever
// sees snapshots serialized at send time, so edits made while an operation is
// in flight are deferred to the next save, never lost.
func (c *Coordinator) Mutate(fn func(*entity.Project) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.project == nil {
		return errors.NewNotFound("no open project")
	}
	return fn(c.project)
}

// Entities returns a name-ordered snapshot of the master list for a Generic
// kind. This is the pull interface presenters re-read after DataUpdated.
func (c *Coordinator) Entities(kind entity.Kind) ([]entity.Generic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.project == nil {
		return nil, errors.NewNotFound("no open project")
	}
	return c.project.Entities(kind)
}

// Snapshot returns a deep copy of the live project, or nil when none is open.
func (c *Coordinator) Snapshot() *entity.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.project == nil {
		return nil
	}
	return c.project.Clone()
}

// CanonicalPath returns the currently recorded document path, empty before
// the first create/load.
func (c *Coordinator) CanonicalPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canonicalPath
}

// Create starts a fresh project from the template. With flushCurrent set and
// a project already open, a Save envelope for the current project is chained
// onto the Create so the old project is durably written before the new one
// becomes active.
func (c *Coordinator) Create(flushCurrent bool) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return errors.NewBusy("create")
	}

	env := broker.NewEnvelope(broker.CommandCreate)
	env.DirectoryPath = ScriptsDir(c.cfg.Workspace)
	env.TemplatePath = c.cfg.TemplatePath
	env.Template = defaultTemplate
	if flushCurrent && c.project != nil {
		chained, err := c.saveEnvelopeLocked(broker.CommandSave)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		env.ChainedSave = chained
	}
	c.state = StateBusy
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Type: bus.OperationStarted, Payload: SettleInfo{OpID: env.OpID, Command: env.Command}})
	c.brk.Send(env)
	return nil
}

// Load opens the project document at path, optionally flushing the currently
// open project first (see Create).
func (c *Coordinator) Load(path string, flushCurrent bool) error {
	if path == "" {
		return errors.NewInvalidRequest("load requires a path")
	}
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return errors.NewBusy("load")
	}

	env := broker.NewEnvelope(broker.CommandLoad)
	env.TargetPath = path
	if flushCurrent && c.project != nil {
		chained, err := c.saveEnvelopeLocked(broker.CommandSave)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		env.ChainedSave = chained
	}
	c.state = StateBusy
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Type: bus.OperationStarted, Payload: SettleInfo{OpID: env.OpID, Command: env.Command}})
	c.brk.Send(env)
	return nil
}

// Save serializes the live project now and hands the snapshot to the worker.
// When the project's name or version no longer matches the recorded canonical
// path, the envelope carries the new path and a resource-directory relocation
// instruction executed before the write.
func (c *Coordinator) Save() error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return errors.NewBusy("save")
	}
	env, err := c.saveEnvelopeLocked(broker.CommandSave)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = StateBusy
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Type: bus.OperationStarted, Payload: SettleInfo{OpID: env.OpID, Command: env.Command}})
	c.brk.Send(env)
	return nil
}

// Exit saves the live project and, on success, publishes Teardown for the
// host shell to stop.
func (c *Coordinator) Exit() error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return errors.NewBusy("exit")
	}
	env, err := c.saveEnvelopeLocked(broker.CommandExit)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = StateTerminating
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Type: bus.OperationStarted, Payload: SettleInfo{OpID: env.OpID, Command: env.Command}})
	c.brk.Send(env)
	return nil
}

// saveEnvelopeLocked builds a Save-semantics envelope for the live project.
// The snapshot is serialized here, at send time: edits made after this point
// are deferred to the next save rather than silently folded in. Caller holds
// the lock.
func (c *Coordinator) saveEnvelopeLocked(cmd broker.Command) (*broker.Envelope, error) {
	if c.project == nil {
		return nil, errors.NewNotFound("no open project")
	}
	payload, err := entity.EncodeProject(c.project)
	if err != nil {
		return nil, err
	}

	env := broker.NewEnvelope(cmd)
	env.Payload = payload
	env.TargetPath = CanonicalPath(c.cfg.Workspace, c.project.Name, c.project.Version)
	if c.canonicalPath != "" && c.canonicalPath != env.TargetPath {
		// Name or version drifted: relocate the resource directory as part of
		// the same write.
		env.ResourceFrom = ResourceDirFor(c.canonicalPath)
		env.ResourceTo = ResourceDirFor(env.TargetPath)
	}
	return env, nil
}

// handleUpdate is the broker's single completion callback. It applies the
// settled envelope to the live state, then publishes DataUpdated strictly
// before OperationSettled so observers never see the busy flag cleared while
// still holding stale data.
func (c *Coordinator) handleUpdate(env *broker.Envelope) {
	c.mu.Lock()
	var settleErr error
	userInitiated := env.Command == broker.CommandCreate || env.Command == broker.CommandLoad

	if env.Result == broker.ResultSuccess {
		switch env.Command {
		case broker.CommandCreate, broker.CommandLoad:
			p, err := entity.DecodeProject(env.Payload)
			if err != nil {
				// The worker validated the payload; a decode fault here is a bug,
				// but the live project must still be left untouched.
				settleErr = err
			} else {
				c.project = p
				c.canonicalPath = env.TargetPath
				c.recordLocked()
			}
		case broker.CommandSave, broker.CommandExit:
			c.canonicalPath = env.TargetPath
			c.recordLocked()
		}
	} else {
		settleErr = env.Err
		if settleErr == nil {
			settleErr = errors.NewInternal(nil)
		}
	}
	project := c.project
	exitSucceeded := env.Command == broker.CommandExit && settleErr == nil
	c.mu.Unlock()

	c.bus.Publish(bus.Event{
		Type:    bus.DataUpdated,
		Payload: UpdateInfo{Project: project, UserInitiated: userInitiated},
	})

	c.mu.Lock()
	if exitSucceeded {
		c.state = StateTerminating
	} else {
		c.state = StateIdle
	}
	c.mu.Unlock()

	c.bus.Publish(bus.Event{
		Type:    bus.OperationSettled,
		Payload: SettleInfo{OpID: env.OpID, Command: env.Command, Err: settleErr},
	})
	if exitSucceeded {
		c.bus.Publish(bus.Event{Type: bus.Teardown})
	}
}

// handleSpawnFault handles the broker's dedicated error channel. The
// coordinator reverts to Idle so presenters can clear the busy indicator and
// retry; no result envelope ever arrives for the affected send.
func (c *Coordinator) handleSpawnFault(err error) {
	c.log.Error("worker spawn fault", slog.String("err", err.Error()))
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
	c.bus.Publish(bus.Event{
		Type:    bus.OperationSettled,
		Payload: SettleInfo{Err: err},
	})
}

// recordLocked upserts the catalog row for the current project. Catalog
// trouble is logged, never surfaced: the document write already succeeded.
func (c *Coordinator) recordLocked() {
	if c.db == nil || c.project == nil {
		return
	}
	if err := catalog.Record(c.db, c.project.Name, c.project.Version, c.canonicalPath); err != nil {
		c.log.Warn("catalog record failed", slog.String("err", err.Error()))
	}
}

// autosaveLoop publishes FlushEditableContent then saves, every tick. A tick
// arriving while another operation is in flight is skipped; the next tick
// picks the edits up.
func (c *Coordinator) autosaveLoop(interval time.Duration) {
	defer close(c.autosaveDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.autosaveStop:
			return
		case <-ticker.C:
			c.Autosave()
		}
	}
}

// Autosave runs one autosave tick: flush externally edited content, then
// save. Exposed so hosts with their own timer wiring can drive ticks
// directly.
func (c *Coordinator) Autosave() {
	c.bus.Publish(bus.Event{Type: bus.FlushEditableContent})
	if err := c.Save(); err != nil {
		if errors.Is(err, errors.ErrBusy) || errors.Is(err, errors.ErrNotFound) {
			return
		}
		c.log.Warn("autosave failed", slog.String("err", err.Error()))
	}
}

// Dispose cancels the autosave timer and drains and stops the broker.
// Idempotent: safe to call more than once.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.mu.Unlock()

	if c.autosaveStop != nil {
		close(c.autosaveStop)
		<-c.autosaveDone
	}
	c.brk.Dispose()
}
