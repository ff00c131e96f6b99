// Package diagram extracts and renders mermaid diagrams in explanations.
package diagram

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	blockPattern = regexp.MustCompile("(?s)```mermaid\\n(.*?)```")
	edgePattern  = regexp.MustCompile(`^\s*(.+?)\s*(-->|---|-\.->|==>)\s*(?:\|([^|]*)\|\s*)?(.+?)\s*;?\s*$`)
)

// Placeholder replaces a diagram that failed to render.
const Placeholder = "[diagram could not be rendered]"

// Segment is a run of explanation text or a diagram source.
type Segment struct {
	Text      string
	Diagram   string
	IsDiagram bool
}

// Split breaks explanation text into text and diagram segments in order.
func Split(text string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range blockPattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: text[last:loc[0]]})
		}
		out = append(out, Segment{Diagram: strings.TrimSpace(text[loc[2]:loc[3]]), IsDiagram: true})
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// Sources returns the raw diagram sources found in text.
func Sources(text string) []string {
	var out []string
	for _, seg := range Split(text) {
		if seg.IsDiagram {
			out = append(out, seg.Diagram)
		}
	}
	return out
}

// Renderer turns a diagram source into displayable text.
type Renderer interface {
	Render(source string) (string, error)
}

// RenderOrPlaceholder renders source, falling back to the placeholder.
func RenderOrPlaceholder(r Renderer, source string) (string, error) {
	out, err := r.Render(source)
	if err != nil {
		return Placeholder, err
	}
	return out, nil
}

// ErrUnsupported is returned for diagram kinds the text renderer cannot draw.
var ErrUnsupported = errors.New("unsupported diagram type")

// TextRenderer draws flowchart/graph edges as an arrow list.
type TextRenderer struct{}

// Render implements Renderer.
func (TextRenderer) Render(source string) (string, error) {
	lines := strings.Split(strings.TrimSpace(source), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "", errors.New("empty diagram")
	}
	header := strings.Fields(lines[0])
	switch header[0] {
	case "flowchart", "graph":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, header[0])
	}

	var b strings.Builder
	edges := 0
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		m := edgePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		from, label, to := nodeLabel(m[1]), strings.TrimSpace(m[3]), nodeLabel(m[4])
		if label != "" {
			fmt.Fprintf(&b, "%s ─(%s)→ %s\n", from, label, to)
		} else {
			fmt.Fprintf(&b, "%s → %s\n", from, to)
		}
		edges++
	}
	if edges == 0 {
		return "", errors.New("diagram has no edges")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// nodeLabel turns `A[Label]`, `A(Label)` or `A{Label}` into Label.
func nodeLabel(node string) string {
	node = strings.TrimSpace(node)
	for _, pair := range []string{"[]", "()", "{}"} {
		open := strings.IndexByte(node, pair[0])
		if open > 0 && strings.HasSuffix(node, string(pair[1])) {
			inner := strings.Trim(node[open+1:len(node)-1], "[](){}\"")
			if inner != "" {
				return inner
			}
		}
	}
	return node
}
