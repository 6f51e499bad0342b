// Package render draws feeds as horizontally scrollable card strips.
package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/DeafMist/tripboard/backend/internal/models"
)

// Layout constants in CSS pixels.
const (
	CardWidth  = 280
	ScrollStep = 320
)

//go:embed page.html.tmpl
var pageSource string

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"imageOr": func(url, placeholder string) string {
		if url == "" {
			return placeholder
		}
		return url
	},
}).Parse(pageSource))

// Strip is one titled row of cards.
type Strip struct {
	Name   string
	Title  string
	Source string
	Items  []models.DisplayItem
}

// PageData is everything a page render needs.
type PageData struct {
	Title       string
	Placeholder string
	Strips      []Strip
	CardWidth   int
	ScrollStep  int
}

// Page writes the full HTML page. Zero layout values use the package defaults.
func Page(w io.Writer, data PageData) error {
	if data.CardWidth <= 0 {
		data.CardWidth = CardWidth
	}
	if data.ScrollStep <= 0 {
		data.ScrollStep = ScrollStep
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
