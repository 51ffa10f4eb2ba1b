package entity

import (
	"sort"
	"strings"
)

// Kind identifies one persisted entity kind. The set is closed; the decoder
// and every per-kind switch treat an unknown kind as a programming error.
type Kind string

const (
	KindRole       Kind = "role"
	KindLocation   Kind = "location"
	KindDetail     Kind = "detail"
	KindActionTime Kind = "action_time"
	KindNote       Kind = "note"
	KindScript     Kind = "script"
	KindProject    Kind = "project"
)

// GenericKinds lists the four kinds that share the Generic shape, in their
// canonical document order.
func GenericKinds() []Kind {
	return []Kind{KindRole, KindLocation, KindDetail, KindActionTime}
}

// IsGeneric reports whether k is one of the Generic kinds.
func IsGeneric(k Kind) bool {
	switch k {
	case KindRole, KindLocation, KindDetail, KindActionTime:
		return true
	}
	return false
}

// Generic is the shared shape of Role, Location, Detail, and ActionTime
// entities. The kind tag lives in the containing list, not the value: the
// document stores roles under "role", locations under "location", and so on.
type Generic struct {
	// Name identifies the entity. Within one master list, two entities are
	// the same iff their names are equal; container identity never matters.
	Name string

	// Description is free-form text, may be empty.
	Description string
}

// Note is one script note. The four entity lists hold value copies of master
// Generic entities, not references: editing a master entity never changes a
// note's copy, and only deletion cascades (by name) into notes.
type Note struct {
	Title       string
	Description string
	Roles       []Generic
	Locations   []Generic
	Details     []Generic
	ActionTimes []Generic

	// Body references externally edited rich-text content (a file name inside
	// the project's resource directory). The core never interprets it.
	Body string
}

// Script is the single script document of a project.
type Script struct {
	Title    string
	Authors  string
	Date     string
	Place    string
	Logline  string
	Synopsis string
	Notes    []Note
}

// Project is the root of the persisted data graph. One live instance exists
// per open project; it is replaced wholesale on create/load, never merged.
type Project struct {
	Name        string
	Version     string
	Roles       []Generic
	Locations   []Generic
	Details     []Generic
	ActionTimes []Generic
	Script      Script
}

// EmptyGeneric returns the zero-value Generic used when a view adds a new row.
func EmptyGeneric() Generic {
	return Generic{}
}

// EmptyNote returns a Note with empty strings and empty (non-nil) lists.
func EmptyNote() Note {
	return Note{
		Roles:       []Generic{},
		Locations:   []Generic{},
		Details:     []Generic{},
		ActionTimes: []Generic{},
	}
}

// EmptyScript returns a Script with no notes.
func EmptyScript() Script {
	return Script{Notes: []Note{}}
}

// EmptyProject returns a Project with empty strings, empty lists, and one
// empty script.
func EmptyProject() *Project {
	return &Project{
		Roles:       []Generic{},
		Locations:   []Generic{},
		Details:     []Generic{},
		ActionTimes: []Generic{},
		Script:      EmptyScript(),
	}
}

// Clone returns a value-independent copy of g.
func (g Generic) Clone() Generic {
	return g
}

// SameAs reports name identity: two Generic entities are the same entity iff
// their Name fields are equal.
func (g Generic) SameAs(other Generic) bool {
	return g.Name == other.Name
}

// OrderKey returns the natural sort key for a Generic entity.
func (g Generic) OrderKey() string {
	return g.Name
}

// Clone returns a deep copy of n; mutating the clone never affects n.
func (n Note) Clone() Note {
	out := n
	out.Roles = cloneGenerics(n.Roles)
	out.Locations = cloneGenerics(n.Locations)
	out.Details = cloneGenerics(n.Details)
	out.ActionTimes = cloneGenerics(n.ActionTimes)
	return out
}

// Clone returns a deep copy of s.
func (s Script) Clone() Script {
	out := s
	out.Notes = make([]Note, len(s.Notes))
	for i, n := range s.Notes {
		out.Notes[i] = n.Clone()
	}
	return out
}

// OrderKey returns the natural sort key for a Script.
func (s Script) OrderKey() string {
	return s.Title
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	out := *p
	out.Roles = cloneGenerics(p.Roles)
	out.Locations = cloneGenerics(p.Locations)
	out.Details = cloneGenerics(p.Details)
	out.ActionTimes = cloneGenerics(p.ActionTimes)
	out.Script = p.Script.Clone()
	return &out
}

// OrderKey returns the natural sort key for a Project.
func (p *Project) OrderKey() string {
	return p.Name
}

func cloneGenerics(list []Generic) []Generic {
	out := make([]Generic, len(list))
	copy(out, list)
	return out
}

// SortGenerics stable-sorts a Generic list by name, case-insensitively, ties
// broken by the raw name. Used to keep master lists stably ordered before
// display.
func SortGenerics(list []Generic) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
		if a != b {
			return a < b
		}
		return list[i].Name < list[j].Name
	})
}

// Item wraps one entity with a transient selection flag. Items are owned
// exclusively by the list that holds them and are never persisted.
type Item[E any] struct {
	Value    E
	Selected bool
}

// WrapItems builds an Item list over entities, all unselected.
func WrapItems[E any](entities []E) []Item[E] {
	items := make([]Item[E], len(entities))
	for i, e := range entities {
		items[i] = Item[E]{Value: e}
	}
	return items
}
