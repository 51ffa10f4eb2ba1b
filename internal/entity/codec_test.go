package entity

import (
	"strings"
	"testing"

	"github.com/hpungsan/playscribe/internal/errors"
)

// sampleProject builds a project touching every entity kind.
func sampleProject() *Project {
	p := EmptyProject()
	p.Name = "heist"
	p.Version = "2.1"
	p.Roles = []Generic{
		{Name: "Villain", Description: "wants the diamond"},
		{Name: "Driver", Description: "never asks questions"},
	}
	p.Locations = []Generic{{Name: "Vault", Description: "basement level"}}
	p.Details = []Generic{{Name: "Red envelope", Description: "contains the plan"}}
	p.ActionTimes = []Generic{{Name: "Midnight", Description: ""}}
	p.Script.Title = "The Long Night"
	p.Script.Authors = "J. Doe"
	p.Script.Date = "2026-01-15"
	p.Script.Place = "Hamburg"
	p.Script.Logline = "One night, one vault."
	p.Script.Synopsis = "A crew breaks in. Things go wrong."

	note := EmptyNote()
	note.Title = "Opening"
	note.Description = "Establish the *crew*."
	note.Roles = []Generic{{Name: "Villain", Description: "wants the diamond"}}
	note.Body = "opening.body"
	p.Script.Notes = append(p.Script.Notes, note)
	return p
}

func TestRoundTrip_Generic(t *testing.T) {
	g := Generic{Name: "Villain", Description: "wants the diamond"}

	data, err := EncodeGeneric(g)
	if err != nil {
		t.Fatalf("EncodeGeneric failed: %v", err)
	}
	got, err := DecodeGeneric(data)
	if err != nil {
		t.Fatalf("DecodeGeneric failed: %v", err)
	}
	if got != g {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, g)
	}
}

func TestRoundTrip_Note(t *testing.T) {
	n := sampleProject().Script.Notes[0]

	data, err := EncodeNote(n)
	if err != nil {
		t.Fatalf("EncodeNote failed: %v", err)
	}
	got, err := DecodeNote(data)
	if err != nil {
		t.Fatalf("DecodeNote failed: %v", err)
	}
	assertNotesEqual(t, got, n)
}

func TestRoundTrip_Script(t *testing.T) {
	s := sampleProject().Script

	data, err := EncodeScript(s)
	if err != nil {
		t.Fatalf("EncodeScript failed: %v", err)
	}
	got, err := DecodeScript(data)
	if err != nil {
		t.Fatalf("DecodeScript failed: %v", err)
	}
	if got.Title != s.Title || got.Authors != s.Authors || got.Synopsis != s.Synopsis {
		t.Errorf("script fields mismatch: got %+v", got)
	}
	if len(got.Notes) != len(s.Notes) {
		t.Fatalf("note count = %d, want %d", len(got.Notes), len(s.Notes))
	}
}

func TestRoundTrip_Project(t *testing.T) {
	p := sampleProject()

	data, err := EncodeProject(p)
	if err != nil {
		t.Fatalf("EncodeProject failed: %v", err)
	}
	got, err := DecodeProject(data)
	if err != nil {
		t.Fatalf("DecodeProject failed: %v", err)
	}
	assertProjectsEqual(t, got, p)
}

func TestRoundTrip_EmptyProject(t *testing.T) {
	p := EmptyProject()
	data, err := EncodeProject(p)
	if err != nil {
		t.Fatalf("EncodeProject failed: %v", err)
	}
	got, err := DecodeProject(data)
	if err != nil {
		t.Fatalf("DecodeProject failed: %v", err)
	}
	assertProjectsEqual(t, got, p)
}

func TestEncodeProject_PrettyPrinted(t *testing.T) {
	data, err := EncodeProject(sampleProject())
	if err != nil {
		t.Fatalf("EncodeProject failed: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "{\n  \"name\"") {
		t.Errorf("document not pretty-printed with two-space indent: %q", text[:20])
	}
	if !strings.HasSuffix(text, "}\n") {
		t.Error("document missing trailing newline")
	}
	for _, key := range []string{`"role"`, `"location"`, `"detail"`, `"action_time"`, `"script"`, `"note"`, `"author"`, `"body"`} {
		if !strings.Contains(text, key) {
			t.Errorf("document missing wire key %s", key)
		}
	}
}

func TestDecodeProject_UnknownKeysDropped(t *testing.T) {
	doc := `{
		"name": "x", "version": "1.0", "color_scheme": "dark",
		"role": [{"name": "A", "description": "", "favorite": true}],
		"location": [], "detail": [], "action_time": [],
		"script": {"title": "", "author": "", "date": "", "place": "",
		           "logline": "", "synopsis": "", "note": [], "word_count": 9}
	}`
	p, err := DecodeProject([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeProject failed: %v", err)
	}
	if p.Name != "x" || len(p.Roles) != 1 || p.Roles[0].Name != "A" {
		t.Errorf("decoded project wrong: %+v", p)
	}
}

func TestDecodeProject_MissingListIsFault(t *testing.T) {
	// "role" absent entirely
	doc := `{
		"name": "x", "version": "1.0",
		"location": [], "detail": [], "action_time": [],
		"script": {"title": "", "author": "", "date": "", "place": "",
		           "logline": "", "synopsis": "", "note": []}
	}`
	_, err := DecodeProject([]byte(doc))
	if !errors.Is(err, errors.ErrDecodeFault) {
		t.Fatalf("err = %v, want DECODE_FAULT", err)
	}
}

func TestDecodeProject_WrongShapeIsFault(t *testing.T) {
	doc := `{
		"name": "x", "version": "1.0",
		"role": "not a list",
		"location": [], "detail": [], "action_time": [],
		"script": {"title": "", "author": "", "date": "", "place": "",
		           "logline": "", "synopsis": "", "note": []}
	}`
	_, err := DecodeProject([]byte(doc))
	if !errors.Is(err, errors.ErrDecodeFault) {
		t.Fatalf("err = %v, want DECODE_FAULT", err)
	}
}

func TestDecodeProject_MissingScriptIsFault(t *testing.T) {
	doc := `{"name": "x", "version": "1.0",
		"role": [], "location": [], "detail": [], "action_time": []}`
	_, err := DecodeProject([]byte(doc))
	if !errors.Is(err, errors.ErrDecodeFault) {
		t.Fatalf("err = %v, want DECODE_FAULT", err)
	}
}

func TestDecodeNote_MissingListIsFault(t *testing.T) {
	doc := `{"title": "n", "description": "", "role": [], "location": [], "detail": [], "body": ""}`
	_, err := DecodeNote([]byte(doc))
	if !errors.Is(err, errors.ErrDecodeFault) {
		t.Fatalf("err = %v, want DECODE_FAULT", err)
	}
}

func assertNotesEqual(t *testing.T, got, want Note) {
	t.Helper()
	if got.Title != want.Title || got.Description != want.Description || got.Body != want.Body {
		t.Errorf("note fields mismatch: got %+v, want %+v", got, want)
	}
	assertGenericsEqual(t, "role", got.Roles, want.Roles)
	assertGenericsEqual(t, "location", got.Locations, want.Locations)
	assertGenericsEqual(t, "detail", got.Details, want.Details)
	assertGenericsEqual(t, "action_time", got.ActionTimes, want.ActionTimes)
}

func assertGenericsEqual(t *testing.T, label string, got, want []Generic) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s count = %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %+v, want %+v", label, i, got[i], want[i])
		}
	}
}

func assertProjectsEqual(t *testing.T, got, want *Project) {
	t.Helper()
	if got.Name != want.Name || got.Version != want.Version {
		t.Errorf("identity mismatch: got %s-%s, want %s-%s", got.Name, got.Version, want.Name, want.Version)
	}
	assertGenericsEqual(t, "role", got.Roles, want.Roles)
	assertGenericsEqual(t, "location", got.Locations, want.Locations)
	assertGenericsEqual(t, "detail", got.Details, want.Details)
	assertGenericsEqual(t, "action_time", got.ActionTimes, want.ActionTimes)
	if got.Script.Title != want.Script.Title {
		t.Errorf("script title = %q, want %q", got.Script.Title, want.Script.Title)
	}
	if len(got.Script.Notes) != len(want.Script.Notes) {
		t.Fatalf("note count = %d, want %d", len(got.Script.Notes), len(want.Script.Notes))
	}
	for i := range want.Script.Notes {
		assertNotesEqual(t, got.Script.Notes[i], want.Script.Notes[i])
	}
}
