package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/danielolaszy/caseform/internal/form"
)

// WriteView prints the parts of a view tree that matter in a terminal:
// headings, texts, field values with their errors, and status panels.
// Option lists and buttons are skipped since prompts replace them.
func WriteView(w io.Writer, n form.Node) error {
	var b strings.Builder
	writeNode(&b, n, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeNode(b *strings.Builder, n form.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	switch n.Kind {
	case form.KindHeading:
		fmt.Fprintf(b, "%s%s\n%s%s\n", indent, n.Text, indent, strings.Repeat("=", len([]rune(n.Text))))
		return
	case form.KindText, form.KindHint:
		if n.Text != "" {
			fmt.Fprintf(b, "%s%s\n", indent, n.Text)
		}
		return
	case form.KindError:
		fmt.Fprintf(b, "%s✗ %s\n", indent, n.Text)
		return
	case form.KindButton, form.KindOption:
		return
	case form.KindField:
		writeField(b, n, indent)
		return
	case form.KindPanel:
		b.WriteString("\n")
		for _, child := range n.Children {
			writeNode(b, child, depth+1)
		}
		return
	}

	for _, child := range n.Children {
		writeNode(b, child, depth)
	}
}

func writeField(b *strings.Builder, field form.Node, indent string) {
	value := ""
	var errs []string
	for _, child := range field.Children {
		switch child.Kind {
		case form.KindSelect, form.KindTextArea:
			value = child.Attrs["value"]
		case form.KindError:
			errs = append(errs, child.Text)
		}
	}
	if value == "" && len(errs) == 0 {
		return
	}
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(b, "%s%s: %s\n", indent, field.Text, firstLine(value))
	for _, msg := range errs {
		fmt.Fprintf(b, "%s  ✗ %s\n", indent, msg)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
