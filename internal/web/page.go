package web

import (
	"embed"
	"html/template"
	"strings"

	"ics-egress/internal/pipeline"
)

//go:embed templates/page.html
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "templates/page.html"))

// Section titles in the order artifacts are produced.
var tabTitles = []string{"SQL Config", "Generated SQL", "Execution JSON", "Generated Export Job", "Generated DAG"}

type tab struct {
	ID       string
	Title    string
	FileName string
	Content  string
}

type page struct {
	Title         string
	Error         string
	Authenticated bool
	Accept        string
	Filename      string
	Script        string
	Tabs          []tab
}

func newPage(title string) page {
	return page{
		Title:  title,
		Accept: strings.Join(pipeline.AllowedExtensions, ","),
	}
}

func tabsFor(arts []pipeline.Artifact) []tab {
	tabs := make([]tab, 0, len(arts))
	for i, a := range arts {
		title := a.Name
		if i < len(tabTitles) {
			title = tabTitles[i]
		}
		tabs = append(tabs, tab{
			ID:       strings.ToLower(strings.ReplaceAll(title, " ", "-")),
			Title:    title,
			FileName: a.Name,
			Content:  a.Content,
		})
	}
	return tabs
}
