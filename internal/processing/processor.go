package processing

import (
	"html"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// recordNamespace scopes name-based record IDs.
var recordNamespace = uuid.MustParse("5c2a3a8e-6f1d-4f0b-9a44-7d0c2b1e9f10")

var (
	whitespace = regexp.MustCompile(`\s+`)
	markup     = regexp.MustCompile(`<[^>]*>`)
)

// CleanText decodes HTML entities, drops inline tags and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = markup.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// LabelKey folds a display label into the key used for duplicate detection.
// Two labels are duplicates when their keys are equal. Keys use full Unicode
// case folding, so "ΟΔΟΣ" and "οδος" collide.
func LabelKey(label string) string {
	// Casers hold state and are not shared across goroutines.
	return cases.Fold().String(CleanText(label))
}

// TextQuery joins the non-empty parts into a free-text places query,
// e.g. ("Kyoto", "Japan") -> "Kyoto, Japan".
func TextQuery(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := CleanText(part); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return strings.Join(out, ", ")
}

// BuildDocumentID derives a name-based (v5) UUID from the collection and raw body,
// so identical payloads always map to the same document.
func BuildDocumentID(collection string, body []byte) string {
	if len(body) == 0 {
		return ""
	}
	name := make([]byte, 0, len(collection)+1+len(body))
	name = append(name, collection...)
	name = append(name, '|')
	name = append(name, body...)
	return uuid.NewSHA1(recordNamespace, name).String()
}

// ExpandLink fills the {ID} token of a link template. An empty template means no link.
func ExpandLink(template, id string) string {
	if template == "" || id == "" {
		return ""
	}
	return strings.ReplaceAll(template, "{ID}", id)
}
