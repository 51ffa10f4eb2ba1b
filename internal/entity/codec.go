package entity

import (
	"encoding/json"

	"github.com/hpungsan/playscribe/internal/errors"
)

// Wire format: pretty-printed UTF-8 JSON, two-space indent. Field names below
// are the persisted names and must not change. Unknown keys are dropped
// silently on decode; a missing or structurally wrong required list is a
// DECODE_FAULT.

type rawGeneric struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type rawNote struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Roles       *[]rawGeneric `json:"role"`
	Locations   *[]rawGeneric `json:"location"`
	Details     *[]rawGeneric `json:"detail"`
	ActionTimes *[]rawGeneric `json:"action_time"`
	Body        string        `json:"body"`
}

type rawScript struct {
	Title    string     `json:"title"`
	Authors  string     `json:"author"`
	Date     string     `json:"date"`
	Place    string     `json:"place"`
	Logline  string     `json:"logline"`
	Synopsis string     `json:"synopsis"`
	Notes    *[]rawNote `json:"note"`
}

type rawProject struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Roles       *[]rawGeneric `json:"role"`
	Locations   *[]rawGeneric `json:"location"`
	Details     *[]rawGeneric `json:"detail"`
	ActionTimes *[]rawGeneric `json:"action_time"`
	Script      *rawScript    `json:"script"`
}

// EncodeGeneric encodes a Generic entity to its wire form.
func EncodeGeneric(g Generic) ([]byte, error) {
	return marshal(toRawGeneric(g))
}

// DecodeGeneric decodes a Generic entity from its wire form.
func DecodeGeneric(data []byte) (Generic, error) {
	var raw rawGeneric
	if err := json.Unmarshal(data, &raw); err != nil {
		return Generic{}, errors.NewDecodeFault("malformed entity", err)
	}
	return fromRawGeneric(raw), nil
}

// EncodeNote encodes a Note to its wire form.
func EncodeNote(n Note) ([]byte, error) {
	return marshal(toRawNote(n))
}

// DecodeNote decodes a Note from its wire form.
func DecodeNote(data []byte) (Note, error) {
	var raw rawNote
	if err := json.Unmarshal(data, &raw); err != nil {
		return Note{}, errors.NewDecodeFault("malformed note", err)
	}
	return fromRawNote(raw)
}

// EncodeScript encodes a Script to its wire form.
func EncodeScript(s Script) ([]byte, error) {
	return marshal(toRawScript(s))
}

// DecodeScript decodes a Script from its wire form.
func DecodeScript(data []byte) (Script, error) {
	var raw rawScript
	if err := json.Unmarshal(data, &raw); err != nil {
		return Script{}, errors.NewDecodeFault("malformed script", err)
	}
	return fromRawScript(raw)
}

// EncodeProject encodes a Project to the persisted document form:
// pretty-printed with a two-space indent and a trailing newline.
func EncodeProject(p *Project) ([]byte, error) {
	return marshal(toRawProject(p))
}

// DecodeProject decodes a persisted project document.
func DecodeProject(data []byte) (*Project, error) {
	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewDecodeFault("malformed project document", err)
	}
	return fromRawProject(raw)
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return append(data, '\n'), nil
}

func toRawGeneric(g Generic) rawGeneric {
	return rawGeneric{Name: g.Name, Description: g.Description}
}

func fromRawGeneric(raw rawGeneric) Generic {
	return Generic{Name: raw.Name, Description: raw.Description}
}

func toRawGenerics(list []Generic) *[]rawGeneric {
	out := make([]rawGeneric, len(list))
	for i, g := range list {
		out[i] = toRawGeneric(g)
	}
	return &out
}

// fromRawGenerics converts a required list field. A nil pointer means the key
// was absent from the document, which is a structural fault, not an empty list.
func fromRawGenerics(list *[]rawGeneric, field string) ([]Generic, error) {
	if list == nil {
		return nil, errors.NewDecodeFault("missing required list "+field, nil)
	}
	out := make([]Generic, len(*list))
	for i, raw := range *list {
		out[i] = fromRawGeneric(raw)
	}
	return out, nil
}

func toRawNote(n Note) rawNote {
	return rawNote{
		Title:       n.Title,
		Description: n.Description,
		Roles:       toRawGenerics(n.Roles),
		Locations:   toRawGenerics(n.Locations),
		Details:     toRawGenerics(n.Details),
		ActionTimes: toRawGenerics(n.ActionTimes),
		Body:        n.Body,
	}
}

func fromRawNote(raw rawNote) (Note, error) {
	n := Note{
		Title:       raw.Title,
		Description: raw.Description,
		Body:        raw.Body,
	}
	var err error
	if n.Roles, err = fromRawGenerics(raw.Roles, "note.role"); err != nil {
		return Note{}, err
	}
	if n.Locations, err = fromRawGenerics(raw.Locations, "note.location"); err != nil {
		return Note{}, err
	}
	if n.Details, err = fromRawGenerics(raw.Details, "note.detail"); err != nil {
		return Note{}, err
	}
	if n.ActionTimes, err = fromRawGenerics(raw.ActionTimes, "note.action_time"); err != nil {
		return Note{}, err
	}
	return n, nil
}

func toRawScript(s Script) rawScript {
	notes := make([]rawNote, len(s.Notes))
	for i, n := range s.Notes {
		notes[i] = toRawNote(n)
	}
	return rawScript{
		Title:    s.Title,
		Authors:  s.Authors,
		Date:     s.Date,
		Place:    s.Place,
		Logline:  s.Logline,
		Synopsis: s.Synopsis,
		Notes:    &notes,
	}
}

func fromRawScript(raw rawScript) (Script, error) {
	s := Script{
		Title:    raw.Title,
		Authors:  raw.Authors,
		Date:     raw.Date,
		Place:    raw.Place,
		Logline:  raw.Logline,
		Synopsis: raw.Synopsis,
	}
	if raw.Notes == nil {
		return Script{}, errors.NewDecodeFault("missing required list script.note", nil)
	}
	s.Notes = make([]Note, len(*raw.Notes))
	for i, rn := range *raw.Notes {
		n, err := fromRawNote(rn)
		if err != nil {
			return Script{}, err
		}
		s.Notes[i] = n
	}
	return s, nil
}

func toRawProject(p *Project) rawProject {
	script := toRawScript(p.Script)
	return rawProject{
		Name:        p.Name,
		Version:     p.Version,
		Roles:       toRawGenerics(p.Roles),
		Locations:   toRawGenerics(p.Locations),
		Details:     toRawGenerics(p.Details),
		ActionTimes: toRawGenerics(p.ActionTimes),
		Script:      &script,
	}
}

func fromRawProject(raw rawProject) (*Project, error) {
	p := &Project{
		Name:    raw.Name,
		Version: raw.Version,
	}
	var err error
	if p.Roles, err = fromRawGenerics(raw.Roles, "role"); err != nil {
		return nil, err
	}
	if p.Locations, err = fromRawGenerics(raw.Locations, "location"); err != nil {
		return nil, err
	}
	if p.Details, err = fromRawGenerics(raw.Details, "detail"); err != nil {
		return nil, err
	}
	if p.ActionTimes, err = fromRawGenerics(raw.ActionTimes, "action_time"); err != nil {
		return nil, err
	}
	if raw.Script == nil {
		return nil, errors.NewDecodeFault("missing required object script", nil)
	}
	if p.Script, err = fromRawScript(*raw.Script); err != nil {
		return nil, err
	}
	return p, nil
}
