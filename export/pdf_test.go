package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-analyzer/apperrors"
	"training-analyzer/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, utils.LevelDebug) }

func TestRenderWithoutBrowser(t *testing.T) {
	p := &PDFRenderer{pool: utils.NewWorkerPool(1, 0), timeout: time.Second, logger: newTestLogger()}

	_, err := p.Render(context.Background(), []byte("<p>hi</p>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExportFailed))
	assert.True(t, errors.Is(err, ErrNoBrowser))
	assert.False(t, p.Available())
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	p := &PDFRenderer{chromeBin: "/nonexistent/chrome", pool: utils.NewWorkerPool(1, 0), timeout: time.Second, logger: newTestLogger()}

	// hold the only slot so Render has to wait on the context
	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = p.pool.Run(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Render(ctx, []byte("<p>hi</p>"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, apperrors.ErrExportFailed))
}

func TestRenderPDF(t *testing.T) {
	bin := findChromeBinary()
	if bin == "" {
		t.Skip("no Chrome or Chromium installed")
	}
	p := NewPDFRenderer(bin, 1, 30*time.Second, newTestLogger())

	pdf, err := p.Render(context.Background(), []byte(`<!DOCTYPE html><html><body><h1>Training report</h1></body></html>`))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
