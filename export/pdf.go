// Package export prints rendered reports to PDF with headless Chrome.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"training-analyzer/apperrors"
	"training-analyzer/utils"
)

// ErrNoBrowser means no Chrome or Chromium binary was found.
var ErrNoBrowser = errors.New("no Chrome or Chromium binary found; set CHROME_BIN")

// PDFRenderer prints HTML documents to PDF. Each render starts its own
// browser; the pool bounds how many run at once.
type PDFRenderer struct {
	chromeBin string
	pool      *utils.WorkerPool
	timeout   time.Duration
	logger    *utils.Logger
}

// NewPDFRenderer looks up the browser once. An empty chromeBin searches the
// usual install locations.
func NewPDFRenderer(chromeBin string, concurrency int, timeout time.Duration, logger *utils.Logger) *PDFRenderer {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if chromeBin == "" {
		logger.Warn("[export] %v; PDF export disabled", ErrNoBrowser)
	} else {
		logger.Info("[export] Using browser binary: %s", chromeBin)
	}
	return &PDFRenderer{
		chromeBin: chromeBin,
		pool:      utils.NewWorkerPool(concurrency, 0),
		timeout:   timeout,
		logger:    logger,
	}
}

// Available reports whether a browser binary was found.
func (p *PDFRenderer) Available() bool {
	return p.chromeBin != ""
}

// Render prints html (a complete document) to an A4 PDF.
func (p *PDFRenderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	if !p.Available() {
		return nil, apperrors.ExportFailed(ErrNoBrowser)
	}

	var pdf []byte
	err := p.pool.Run(ctx, func() error {
		var err error
		pdf, err = p.print(ctx, string(html))
		return err
	})
	if err != nil {
		p.logger.Error("[export] PDF render failed: %v", err)
		return nil, apperrors.ExportFailed(err)
	}

	p.logger.Debug("[export] Rendered %d byte PDF", len(pdf))
	return pdf, nil
}

func (p *PDFRenderer) print(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.ExecPath(p.chromeBin),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print: %w", err)
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
