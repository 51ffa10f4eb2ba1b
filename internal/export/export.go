// Package export renders a project to a standalone HTML document: script
// front matter, the master entity tables, and one section per note. Synopsis
// and description fields are treated as Markdown. PDF output is deliberately
// not part of this package.
package export

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/playscribe/internal/entity"
	"github.com/hpungsan/playscribe/internal/errors"
)

type entitySection struct {
	Heading string
	Items   []entity.Generic
}

type noteView struct {
	Title           string
	DescriptionHTML template.HTML
	Sections        []entitySection
	Body            string
}

type documentView struct {
	Name         string
	Version      string
	Script       entity.Script
	LoglineHTML  template.HTML
	SynopsisHTML template.HTML
	Sections     []entitySection
	Notes        []noteView
}

var sectionHeadings = map[entity.Kind]string{
	entity.KindRole:       "Roles",
	entity.KindLocation:   "Locations",
	entity.KindDetail:     "Details",
	entity.KindActionTime: "Action times",
}

// HTML renders p to a complete HTML document.
func HTML(p *entity.Project) ([]byte, error) {
	if p == nil {
		return nil, errors.NewInvalidRequest("no project to export")
	}

	view := documentView{
		Name:    p.Name,
		Version: p.Version,
		Script:  p.Script,
	}

	var err error
	if view.LoglineHTML, err = renderMarkdown(p.Script.Logline); err != nil {
		return nil, err
	}
	if view.SynopsisHTML, err = renderMarkdown(p.Script.Synopsis); err != nil {
		return nil, err
	}

	for _, kind := range entity.GenericKinds() {
		items, err := p.Entities(kind)
		if err != nil {
			return nil, err
		}
		view.Sections = append(view.Sections, entitySection{
			Heading: sectionHeadings[kind],
			Items:   items,
		})
	}

	for _, n := range p.Script.Notes {
		nv := noteView{Title: n.Title, Body: n.Body}
		if nv.DescriptionHTML, err = renderMarkdown(n.Description); err != nil {
			return nil, err
		}
		nv.Sections = []entitySection{
			{Heading: sectionHeadings[entity.KindRole], Items: n.Roles},
			{Heading: sectionHeadings[entity.KindLocation], Items: n.Locations},
			{Heading: sectionHeadings[entity.KindDetail], Items: n.Details},
			{Heading: sectionHeadings[entity.KindActionTime], Items: n.ActionTimes},
		}
		view.Notes = append(view.Notes, nv)
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, view); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders p and writes the document to path.
func WriteFile(p *entity.Project, path string) error {
	data, err := HTML(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewIOFault("create export directory", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.NewIOFault("write export", err)
	}
	return nil
}

func renderMarkdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", errors.NewInternal(err)
	}
	// goldmark output is sanitized HTML from our own document fields
	return template.HTML(buf.String()), nil
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Script.Title}} ({{.Name}} {{.Version}})</title>
<style>
body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th, td { border: 1px solid #999; padding: 0.3rem 0.6rem; text-align: left; }
.note { border-top: 2px solid #333; margin-top: 2rem; padding-top: 1rem; }
.meta { color: #555; }
</style>
</head>
<body>
<h1>{{.Script.Title}}</h1>
<p class="meta">{{.Name}} {{.Version}}{{with .Script.Authors}}, {{.}}{{end}}</p>
{{with .Script.Date}}<p class="meta">Date: {{.}}</p>{{end}}
{{with .Script.Place}}<p class="meta">Place: {{.}}</p>{{end}}
{{with .LoglineHTML}}<h2>Logline</h2>{{.}}{{end}}
{{with .SynopsisHTML}}<h2>Synopsis</h2>{{.}}{{end}}
{{range .Sections}}{{if .Items}}
<h2>{{.Heading}}</h2>
<table>
<tr><th>Name</th><th>Description</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Description}}</td></tr>
{{end}}</table>
{{end}}{{end}}
{{range .Notes}}
<div class="note">
<h2>{{.Title}}</h2>
{{.DescriptionHTML}}
{{range .Sections}}{{if .Items}}
<h3>{{.Heading}}</h3>
<ul>{{range .Items}}<li>{{.Name}}</li>{{end}}</ul>
{{end}}{{end}}
{{with .Body}}<p class="meta">Body: {{.}}</p>{{end}}
</div>
{{end}}
</body>
</html>
`))
