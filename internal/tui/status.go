package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/danielolaszy/caseform/internal/form"
)

// StatusWriter prints transient status lines from controller renders while
// a prompt is not on screen, such as the submitting indicator during a
// webhook call. Full views are still printed by the session.
type StatusWriter struct {
	mu      sync.Mutex
	out     io.Writer
	loading bool
}

// NewStatusWriter creates a status writer printing to out.
func NewStatusWriter(out io.Writer) *StatusWriter {
	return &StatusWriter{out: out}
}

// Render is a form.WithRenderer callback. It prints the loading text once
// when it appears in the view. Renders may arrive from timer goroutines.
func (s *StatusWriter) Render(view form.Node) {
	text, loading := loadingText(view)

	s.mu.Lock()
	defer s.mu.Unlock()
	if loading && !s.loading {
		fmt.Fprintln(s.out, text)
	}
	s.loading = loading
}

func loadingText(view form.Node) (string, bool) {
	status, ok := view.Find(form.IDStatus)
	if !ok {
		return "", false
	}
	for _, child := range status.Children {
		if child.Class == "loading" {
			return child.Text, true
		}
	}
	return "", false
}
