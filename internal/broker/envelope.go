// Package broker owns the background execution unit that performs all file
// I/O and decoding off the controlling thread. Callers describe one
// create/load/save/exit request as an Envelope, send it fire-and-forget, and
// receive the settled envelope back through a single update callback, in send
// order.
package broker

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Command is one of the four operations the worker executes.
type Command string

const (
	CommandCreate Command = "create"
	CommandLoad   Command = "load"
	CommandSave   Command = "save"
	CommandExit   Command = "exit"
)

// Result is the settlement state of an envelope. It transitions exactly once,
// from Pending to Success or Failure, and never back.
type Result string

const (
	ResultPending Result = "pending"
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Envelope is the request/response record crossing the worker boundary. Only
// serialized snapshots travel in Payload; no live entity ever crosses.
type Envelope struct {
	// OpID is a ULID identifying this operation in logs and the catalog.
	OpID string

	Command Command

	// Payload holds the serialized project document. For Save/Exit the caller
	// fills it at send time; for Create/Load the worker fills it with the
	// template or file contents.
	Payload []byte

	// TargetPath is the file the command reads or writes.
	TargetPath string

	// DirectoryPath is ensured to exist before a Create proceeds.
	DirectoryPath string

	// TemplatePath points at the empty-project template for Create. When
	// empty, Template supplies the built-in contents instead.
	TemplatePath string
	Template     []byte

	// ResourceFrom/ResourceTo instruct a Save to copy the project's resource
	// directory to its new versioned location before the write, so a crash
	// can never leave the write under the stale path with resources already
	// moved.
	ResourceFrom string
	ResourceTo   string

	// ChainedSave, when present, is flushed with full Save semantics inside
	// the worker before the outer command runs.
	ChainedSave *Envelope

	Result       Result
	ErrorMessage string

	// Err holds the original cause when Result is Failure.
	Err error
}

// NewEnvelope creates a pending envelope for cmd with a fresh operation ID.
func NewEnvelope(cmd Command) *Envelope {
	return &Envelope{
		OpID:    newULID(),
		Command: cmd,
		Result:  ResultPending,
	}
}

// succeed settles the envelope as Success. Settling twice is a no-op: the
// first transition wins.
func (e *Envelope) succeed() {
	if e.Result != ResultPending {
		return
	}
	e.Result = ResultSuccess
}

// fail settles the envelope as Failure with the command name prefixed to the
// cause, matching the "<command> <cause>" message contract.
func (e *Envelope) fail(cause error) {
	if e.Result != ResultPending {
		return
	}
	e.Result = ResultFailure
	e.ErrorMessage = fmt.Sprintf("%s %v", e.Command, cause)
	e.Err = cause
}

// Settled reports whether the envelope has left the Pending state.
func (e *Envelope) Settled() bool {
	return e.Result != ResultPending
}

func newULID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		// crypto/rand never fails on supported platforms
		return ulid.Make().String()
	}
	return id.String()
}
