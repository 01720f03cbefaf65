package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const fence = "```"

// q renders s as a JSON string literal. The result is a valid YAML double
// quoted scalar and a valid TypeScript string literal.
func q(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	out := strings.TrimSuffix(buf.String(), "\n")
	if strings.IndexFunc(out, yamlUnprintable) < 0 {
		return out
	}
	var b strings.Builder
	for _, r := range out {
		if yamlUnprintable(r) {
			fmt.Fprintf(&b, `\u%04x`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// yamlUnprintable reports the runes encoding/json leaves raw that YAML
// rejects in a quoted scalar: DEL, the C1 controls and U+FFFE/U+FFFF.
func yamlUnprintable(r rune) bool {
	return (r >= 0x7f && r <= 0x9f) || r == 0xfffe || r == 0xffff
}

// qList renders items as a flow sequence of quoted strings.
func qList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = q(it)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// marshalJSON renders v as indented JSON with a trailing newline.
func marshalJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// Only plain structs, slices and string maps are passed in.
		panic(fmt.Sprintf("generator: marshal json: %v", err))
	}
	return buf.String()
}

// doc accumulates the lines of one generated file.
type doc struct {
	b strings.Builder
}

func (d *doc) line(s string) {
	d.b.WriteString(s)
	d.b.WriteByte('\n')
}

func (d *doc) linef(format string, args ...any) {
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteByte('\n')
}

func (d *doc) blank() { d.b.WriteByte('\n') }

// lines writes a multi-line block verbatim, one line at a time.
func (d *doc) lines(block string) {
	for _, l := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
		d.line(l)
	}
}

// kv writes `key: "value"` at the given indentation.
func (d *doc) kv(indent int, key, value string) {
	d.linef("%s%s: %s", pad(indent), key, q(value))
}

// list writes a block sequence of quoted strings, or `key: []` when empty.
func (d *doc) list(indent int, key string, items []string) {
	if len(items) == 0 {
		d.linef("%s%s: []", pad(indent), key)
		return
	}
	d.linef("%s%s:", pad(indent), key)
	for _, it := range items {
		d.linef("%s  - %s", pad(indent), q(it))
	}
}

func (d *doc) String() string { return d.b.String() }

func pad(n int) string { return strings.Repeat(" ", n) }

// oneLine collapses whitespace runs so s fits on a single markdown or env
// line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cell escapes s for use inside a markdown table cell.
func cell(s string) string {
	s = oneLine(s)
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// bullets writes a markdown bullet list, or placeholder when items is empty.
func (d *doc) bullets(items []string, placeholder string) {
	if len(items) == 0 {
		d.line("_" + placeholder + "_")
		return
	}
	for _, it := range items {
		d.line("- " + oneLine(it))
	}
}

// envKey turns s into an upper snake case environment variable name.
func envKey(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
