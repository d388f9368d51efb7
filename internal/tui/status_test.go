package tui

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/caseform/internal/form"
	"github.com/danielolaszy/caseform/pkg/models"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// blockingCreator holds CreateCase until release is closed.
type blockingCreator struct {
	started chan struct{}
	release chan struct{}
}

func (c *blockingCreator) CreateCase(ctx context.Context, payload models.CasePayload) (*models.SubmissionResult, error) {
	close(c.started)
	<-c.release
	return &models.SubmissionResult{CaseNumber: "CAS-01003"}, nil
}

func TestStatusWriterPrintsLoadingOncePerSubmission(t *testing.T) {
	var out bytes.Buffer
	status := NewStatusWriter(&out)
	rules := form.DefaultRules()

	idle := form.Render(models.UIState{}, rules)
	submitting := form.Render(models.UIState{IsSubmitting: true}, rules)

	status.Render(idle)
	assert.Empty(t, out.String())

	status.Render(submitting)
	status.Render(submitting)
	assert.Equal(t, "Submitting case…\n", out.String())

	status.Render(idle)
	status.Render(submitting)
	assert.Equal(t, "Submitting case…\nSubmitting case…\n", out.String())
}

func TestSessionShowsSubmittingWhileWebhookRuns(t *testing.T) {
	out := &syncBuffer{}
	status := NewStatusWriter(out)
	client := &blockingCreator{started: make(chan struct{}), release: make(chan struct{})}
	ctrl := form.NewController(form.DefaultRules(), client, form.WithRenderer(status.Render))
	t.Cleanup(ctrl.Close)
	driver := &scriptedDriver{answers: []any{"Billing", "Refund", validDescription, false, false}}

	done := make(chan error, 1)
	go func() {
		done <- NewSession(ctrl, driver, out).Run(context.Background())
	}()

	select {
	case <-client.started:
	case <-time.After(time.Second):
		t.Fatal("webhook was not called")
	}
	assert.Equal(t, "Submitting case…\n", out.String(), "indicator is shown before the call returns")

	close(client.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("session did not finish")
	}

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Submitting case…\n"))
	assert.Contains(t, text, "Case Number: CAS-01003")
	assert.Equal(t, 1, strings.Count(text, "Submitting case…"))
}
