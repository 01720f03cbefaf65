package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Slugify converts free text into a lowercase kebab-case slug.
// Runs of non-alphanumeric characters collapse into a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// WorkflowSlug returns the file slug of the i-th project workflow: the
// explicit slug, else the slugified name, else "workflow-<i+1>".
func WorkflowSlug(w Workflow, i int) string {
	if w.Slug != "" {
		return w.Slug
	}
	if s := Slugify(w.Name); s != "" {
		return s
	}
	return fmt.Sprintf("workflow-%d", i+1)
}
