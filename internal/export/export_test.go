package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/playscribe/internal/entity"
	"github.com/hpungsan/playscribe/internal/errors"
)

func sampleProject() *entity.Project {
	p := entity.EmptyProject()
	p.Name = "heist"
	p.Version = "2.0"
	p.Script.Title = "The Vault"
	p.Script.Authors = "J. Doe"
	p.Script.Logline = "A **bold** plan."
	p.Script.Synopsis = "Act one.\n\nAct two."
	p.Roles = append(p.Roles, entity.Generic{Name: "Villain", Description: "calm"})
	p.Locations = append(p.Locations, entity.Generic{Name: "Vault"})

	n := entity.EmptyNote()
	n.Title = "Opening"
	n.Description = "The *quiet* before."
	n.Roles = append(n.Roles, entity.Generic{Name: "Villain"})
	n.Body = "INT. VAULT - NIGHT"
	p.AddNote(n)
	return p
}

func TestHTML_RendersDocument(t *testing.T) {
	data, err := HTML(sampleProject())
	require.NoError(t, err)
	html := string(data)

	require.Contains(t, html, "<title>The Vault (heist 2.0)</title>")
	require.Contains(t, html, "<h1>The Vault</h1>")
	require.Contains(t, html, "J. Doe")
	require.Contains(t, html, "<strong>bold</strong>", "logline must be rendered as Markdown")
	require.Contains(t, html, "<em>quiet</em>", "note description must be rendered as Markdown")
	require.Contains(t, html, "<h2>Roles</h2>")
	require.Contains(t, html, "<td>Villain</td>")
	require.Contains(t, html, "<h2>Opening</h2>")
	require.Contains(t, html, "INT. VAULT - NIGHT")
}

func TestHTML_OmitsEmptySections(t *testing.T) {
	p := entity.EmptyProject()
	p.Name = "bare"
	p.Version = "1.0"

	data, err := HTML(p)
	require.NoError(t, err)
	html := string(data)

	require.NotContains(t, html, "<h2>Roles</h2>")
	require.NotContains(t, html, "<h2>Logline</h2>")
	require.NotContains(t, html, `class="note"`)
}

func TestHTML_EscapesDocumentText(t *testing.T) {
	p := entity.EmptyProject()
	p.Name = "x"
	p.Version = "1.0"
	p.Script.Title = "<script>alert(1)</script>"

	data, err := HTML(p)
	require.NoError(t, err)
	require.NotContains(t, string(data), "<script>alert(1)</script>")
	require.True(t, strings.Contains(string(data), "&lt;script&gt;"))
}

func TestHTML_NilProject(t *testing.T) {
	_, err := HTML(nil)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestWriteFile_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "heist.html")
	require.NoError(t, WriteFile(sampleProject(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "<h1>The Vault</h1>")
}
