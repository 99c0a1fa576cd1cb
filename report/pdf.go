package report

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"svcadmin/respond"
)

// ErrBrowserUnavailable is returned when no headless browser can be started.
var ErrBrowserUnavailable = &respond.StatusError{
	Status:  http.StatusServiceUnavailable,
	Message: "PDF rendering is unavailable: no browser could be launched",
}

type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// BrowserPDF prints HTML to PDF with a headless Chromium driven by rod.
// Bin overrides the browser binary; empty means the one installed on the
// host. Browsers are never downloaded.
type BrowserPDF struct {
	Bin string
}

var lookPath = launcher.LookPath

func (b BrowserPDF) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	bin := b.Bin
	if bin == "" {
		found, ok := lookPath()
		if !ok {
			return nil, ErrBrowserUnavailable
		}
		bin = found
	}
	l := launcher.New().Context(ctx).Bin(bin).Headless(true).Leakless(false)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrBrowserUnavailable, err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrBrowserUnavailable, err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("failed to load statement html: %w", err)
	}
	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf stream: %w", err)
	}
	return data, nil
}
