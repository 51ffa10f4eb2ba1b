package entity

import (
	"fmt"

	"github.com/hpungsan/playscribe/internal/errors"
)

// Mutation and read operations over the live project. All of these run on the
// controlling thread; the background worker only ever sees serialized
// snapshots produced by EncodeProject.

// genericSlot returns the master list holding entities of the given kind.
func (p *Project) genericSlot(kind Kind) (*[]Generic, error) {
	switch kind {
	case KindRole:
		return &p.Roles, nil
	case KindLocation:
		return &p.Locations, nil
	case KindDetail:
		return &p.Details, nil
	case KindActionTime:
		return &p.ActionTimes, nil
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("kind %q has no master list", kind))
}

func (n *Note) genericSlot(kind Kind) *[]Generic {
	switch kind {
	case KindRole:
		return &n.Roles
	case KindLocation:
		return &n.Locations
	case KindDetail:
		return &n.Details
	case KindActionTime:
		return &n.ActionTimes
	}
	return nil
}

// Entities returns a name-ordered copy of the master list for a Generic kind.
// Mutating the returned slice never affects the project.
func (p *Project) Entities(kind Kind) ([]Generic, error) {
	slot, err := p.genericSlot(kind)
	if err != nil {
		return nil, err
	}
	out := cloneGenerics(*slot)
	SortGenerics(out)
	return out, nil
}

// AddGeneric appends a new entity to the master list for kind.
func (p *Project) AddGeneric(kind Kind, g Generic) error {
	slot, err := p.genericSlot(kind)
	if err != nil {
		return err
	}
	*slot = append(*slot, g)
	return nil
}

// ReplaceGeneric replaces the master entity identified by name. Note-level
// copies of the old entity are deliberately left untouched: editing a master
// never propagates to notes that copied it.
func (p *Project) ReplaceGeneric(kind Kind, name string, g Generic) error {
	slot, err := p.genericSlot(kind)
	if err != nil {
		return err
	}
	for i := range *slot {
		if (*slot)[i].Name == name {
			(*slot)[i] = g
			return nil
		}
	}
	return errors.NewNotFound(fmt.Sprintf("%s %q", kind, name))
}

// DeleteGeneric removes the master entity identified by name and cascades the
// deletion by name into every note: any embedded copy of the same kind whose
// name matches is removed. Copies with other names are untouched.
func (p *Project) DeleteGeneric(kind Kind, name string) error {
	slot, err := p.genericSlot(kind)
	if err != nil {
		return err
	}
	kept := (*slot)[:0]
	found := false
	for _, g := range *slot {
		if g.Name == name {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return errors.NewNotFound(fmt.Sprintf("%s %q", kind, name))
	}
	*slot = kept

	for i := range p.Script.Notes {
		noteSlot := p.Script.Notes[i].genericSlot(kind)
		keptCopies := (*noteSlot)[:0]
		for _, g := range *noteSlot {
			if g.Name == name {
				continue
			}
			keptCopies = append(keptCopies, g)
		}
		*noteSlot = keptCopies
	}
	return nil
}

// Notes returns the script's notes in display order (insertion order).
func (p *Project) Notes() []Note {
	out := make([]Note, len(p.Script.Notes))
	for i, n := range p.Script.Notes {
		out[i] = n.Clone()
	}
	return out
}

// AddNote appends a note to the script.
func (p *Project) AddNote(n Note) {
	p.Script.Notes = append(p.Script.Notes, n)
}

// DeleteNote removes the note at index.
func (p *Project) DeleteNote(index int) error {
	if index < 0 || index >= len(p.Script.Notes) {
		return errors.NewNotFound(fmt.Sprintf("note %d", index))
	}
	p.Script.Notes = append(p.Script.Notes[:index], p.Script.Notes[index+1:]...)
	return nil
}

// AttachToNote embeds a value copy of a master entity into the note at index.
// The copy is matched against the master list purely by name from then on.
func (p *Project) AttachToNote(index int, kind Kind, g Generic) error {
	if index < 0 || index >= len(p.Script.Notes) {
		return errors.NewNotFound(fmt.Sprintf("note %d", index))
	}
	slot := p.Script.Notes[index].genericSlot(kind)
	if slot == nil {
		return errors.NewInvalidRequest(fmt.Sprintf("kind %q cannot be embedded in a note", kind))
	}
	*slot = append(*slot, g.Clone())
	return nil
}
