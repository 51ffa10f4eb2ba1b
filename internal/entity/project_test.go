package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/playscribe/internal/errors"
)

func noteWithRole(title, roleName string) Note {
	n := EmptyNote()
	n.Title = title
	n.Roles = append(n.Roles, Generic{Name: roleName})
	return n
}

func TestDeleteGeneric_CascadesByNameIntoNotes(t *testing.T) {
	p := EmptyProject()
	require.NoError(t, p.AddGeneric(KindRole, Generic{Name: "Villain"}))
	require.NoError(t, p.AddGeneric(KindRole, Generic{Name: "Driver"}))

	// Three notes reference Villain, one references only Driver.
	p.AddNote(noteWithRole("n1", "Villain"))
	p.AddNote(noteWithRole("n2", "Villain"))
	p.AddNote(noteWithRole("n3", "Villain"))
	p.AddNote(noteWithRole("n4", "Driver"))

	// n1 also holds an unrelated location copy that must survive.
	require.NoError(t, p.AttachToNote(0, KindLocation, Generic{Name: "Vault"}))

	require.NoError(t, p.DeleteGeneric(KindRole, "Villain"))

	roles, err := p.Entities(KindRole)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, "Driver", roles[0].Name)

	for i := 0; i < 3; i++ {
		require.Empty(t, p.Script.Notes[i].Roles, "note %d should have lost its Villain copy", i)
	}
	require.Len(t, p.Script.Notes[3].Roles, 1, "unrelated reference must be untouched")
	require.Equal(t, "Driver", p.Script.Notes[3].Roles[0].Name)
	require.Len(t, p.Script.Notes[0].Locations, 1, "other kinds must be untouched")
}

func TestDeleteGeneric_UnknownNameIsNotFound(t *testing.T) {
	p := EmptyProject()
	err := p.DeleteGeneric(KindRole, "Nobody")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

// Renaming a master entity deliberately does not touch note-level copies:
// matching is purely by name, so the old copies simply become orphans.
func TestRenameDoesNotCascade(t *testing.T) {
	p := EmptyProject()
	require.NoError(t, p.AddGeneric(KindRole, Generic{Name: "Villain"}))
	p.AddNote(noteWithRole("n1", "Villain"))

	require.NoError(t, p.ReplaceGeneric(KindRole, "Villain", Generic{Name: "Antagonist"}))

	roles, err := p.Entities(KindRole)
	require.NoError(t, err)
	require.Equal(t, "Antagonist", roles[0].Name)
	require.Equal(t, "Villain", p.Script.Notes[0].Roles[0].Name,
		"note copy must keep the old name")
}

func TestReplaceGeneric_DoesNotTouchNoteCopies(t *testing.T) {
	p := EmptyProject()
	require.NoError(t, p.AddGeneric(KindRole, Generic{Name: "Villain", Description: "old"}))
	p.AddNote(EmptyNote())
	require.NoError(t, p.AttachToNote(0, KindRole, Generic{Name: "Villain", Description: "old"}))

	require.NoError(t, p.ReplaceGeneric(KindRole, "Villain", Generic{Name: "Villain", Description: "new"}))

	require.Equal(t, "old", p.Script.Notes[0].Roles[0].Description)
}

func TestEntities_ReturnsOrderedCopy(t *testing.T) {
	p := EmptyProject()
	require.NoError(t, p.AddGeneric(KindLocation, Generic{Name: "vault"}))
	require.NoError(t, p.AddGeneric(KindLocation, Generic{Name: "Alley"}))
	require.NoError(t, p.AddGeneric(KindLocation, Generic{Name: "rooftop"}))

	list, err := p.Entities(KindLocation)
	require.NoError(t, err)
	require.Equal(t, []string{"Alley", "rooftop", "vault"}, names(list))

	// Mutating the returned slice must not reach the project.
	list[0].Name = "changed"
	again, err := p.Entities(KindLocation)
	require.NoError(t, err)
	require.Equal(t, "Alley", again[0].Name)
}

func TestEntities_RejectsNonGenericKind(t *testing.T) {
	p := EmptyProject()
	_, err := p.Entities(KindScript)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestAttachToNote_EmbedsValueCopy(t *testing.T) {
	p := EmptyProject()
	master := Generic{Name: "Villain", Description: "original"}
	require.NoError(t, p.AddGeneric(KindRole, master))
	p.AddNote(EmptyNote())
	require.NoError(t, p.AttachToNote(0, KindRole, master))

	// Editing the master afterwards must not reach the embedded copy.
	require.NoError(t, p.ReplaceGeneric(KindRole, "Villain", Generic{Name: "Villain", Description: "edited"}))
	require.Equal(t, "original", p.Script.Notes[0].Roles[0].Description)
}

func TestClone_IsValueIndependent(t *testing.T) {
	p := EmptyProject()
	require.NoError(t, p.AddGeneric(KindRole, Generic{Name: "Villain"}))
	p.AddNote(noteWithRole("n1", "Villain"))

	clone := p.Clone()
	clone.Roles[0].Name = "Changed"
	clone.Script.Notes[0].Roles[0].Name = "Changed"
	clone.Script.Notes[0].Title = "Changed"

	require.Equal(t, "Villain", p.Roles[0].Name)
	require.Equal(t, "Villain", p.Script.Notes[0].Roles[0].Name)
	require.Equal(t, "n1", p.Script.Notes[0].Title)
}

func TestDeleteNote(t *testing.T) {
	p := EmptyProject()
	p.AddNote(noteWithRole("n1", "A"))
	p.AddNote(noteWithRole("n2", "B"))

	require.NoError(t, p.DeleteNote(0))
	require.Len(t, p.Script.Notes, 1)
	require.Equal(t, "n2", p.Script.Notes[0].Title)

	err := p.DeleteNote(5)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestSameAs_UsesNameOnly(t *testing.T) {
	a := Generic{Name: "Villain", Description: "x"}
	b := Generic{Name: "Villain", Description: "y"}
	c := Generic{Name: "Driver", Description: "x"}
	require.True(t, a.SameAs(b))
	require.False(t, a.SameAs(c))
}

func TestWrapItems(t *testing.T) {
	items := WrapItems([]Generic{{Name: "A"}, {Name: "B"}})
	require.Len(t, items, 2)
	require.False(t, items[0].Selected)
	require.Equal(t, "A", items[0].Value.Name)
}

func names(list []Generic) []string {
	out := make([]string, len(list))
	for i, g := range list {
		out[i] = g.Name
	}
	return out
}
