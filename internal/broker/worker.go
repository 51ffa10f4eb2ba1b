package broker

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hpungsan/playscribe/internal/entity"
	"github.com/hpungsan/playscribe/internal/errors"
)

// Execute performs one envelope's command entirely inside the background
// execution unit. Faults are settled into the envelope, never raised.
func Execute(env *Envelope) {
	// A chained save flushes the previously active project with full Save
	// semantics before the outer command runs, making the switch one atomic
	// round trip from the caller's perspective.
	if env.ChainedSave != nil {
		if err := performSave(env.ChainedSave); err != nil {
			env.ChainedSave.fail(err)
			env.fail(err)
			return
		}
		env.ChainedSave.succeed()
	}

	switch env.Command {
	case CommandCreate:
		executeCreate(env)
	case CommandLoad:
		executeLoad(env)
	case CommandSave, CommandExit:
		// Exit performs Save semantics; the coordinator begins shutdown when
		// the result comes back.
		if err := performSave(env); err != nil {
			env.fail(err)
			return
		}
		env.succeed()
	default:
		env.fail(errors.NewInvalidRequest("unknown command " + string(env.Command)))
	}
}

func executeCreate(env *Envelope) {
	if env.DirectoryPath != "" {
		if err := os.MkdirAll(env.DirectoryPath, 0700); err != nil {
			env.fail(errors.NewIOFault("create directory", err))
			return
		}
	}

	template := env.Template
	if env.TemplatePath != "" {
		data, err := os.ReadFile(env.TemplatePath)
		if err != nil {
			env.fail(errors.NewIOFault("read template", err))
			return
		}
		template = data
	}

	// A malformed template must surface as a Failure result here, not as a
	// broken live project later.
	p, err := entity.DecodeProject(template)
	if err != nil {
		env.fail(err)
		return
	}

	// The template names the fresh project, so the canonical target is only
	// known once the template has been decoded.
	if env.TargetPath == "" {
		env.TargetPath = filepath.Join(env.DirectoryPath, p.Name+"-"+p.Version+".json")
	}

	if err := atomicWrite(env.TargetPath, template); err != nil {
		env.fail(err)
		return
	}

	env.Payload = template
	env.succeed()
}

func executeLoad(env *Envelope) {
	data, err := os.ReadFile(env.TargetPath)
	if err != nil {
		env.fail(errors.NewIOFault("read project", err))
		return
	}
	if _, err := entity.DecodeProject(data); err != nil {
		env.fail(err)
		return
	}
	env.Payload = data
	env.succeed()
}

// performSave writes the payload to the target path, relocating the resource
// directory first when instructed. Ordering matters: the resource copy
// happens before the write so a crash cannot leave the document under the
// stale path with resources already moved.
func performSave(env *Envelope) error {
	if len(env.Payload) == 0 {
		return errors.NewInvalidRequest("save with empty payload")
	}
	if env.TargetPath == "" {
		return errors.NewInvalidRequest("save with no target path")
	}

	if env.ResourceFrom != "" && env.ResourceTo != "" {
		if err := copyDir(env.ResourceFrom, env.ResourceTo); err != nil {
			return err
		}
	}

	return atomicWrite(env.TargetPath, env.Payload)
}

// atomicWrite makes the write all-or-nothing at the file level: the payload
// lands in a sibling temp file first and is renamed onto the target, so a
// half-written document is never visible under the canonical path.
func atomicWrite(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return errors.NewIOFault("create directory", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.NewIOFault("write", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.NewIOFault("write", err)
	}
	return nil
}

// copyDir recursively copies src into dst. A missing source directory means
// there is nothing to relocate and is not a fault.
func copyDir(src, dst string) error {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewIOFault("read resources", err)
	}
	if !info.IsDir() {
		return errors.NewIOFault("read resources", os.ErrInvalid)
	}

	walkErr := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0700)
		}
		return copyFile(path, target)
	})
	if walkErr != nil {
		return errors.NewIOFault("copy resources", walkErr)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
