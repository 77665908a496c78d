//go:build chromium

package pdfexport

import (
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// Backend names the native backend compiled into this build.
const Backend = "chromium"

// chromium exports DevTools page targets through the Chrome DevTools
// protocol. Printing runs on its own goroutine and reports back through the
// completion callback like any other native backend.
type chromium struct {
	browser  *rod.Browser
	launcher *launcher.Launcher // nil when attached to a browser we do not own
}

// NewNative connects to opts.ChromeURL, or launches a headless browser when
// it is empty.
func NewNative(opts NativeOptions) (Native, error) {
	c := &chromium{}

	controlURL := opts.ChromeURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("error launching browser: %w", err)
		}
		c.launcher = l
		controlURL = u
	}

	logrus.WithField("control_url", controlURL).Info("pdf export: connecting to chromium")
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if c.launcher != nil {
			c.launcher.Kill()
		}
		return nil, fmt.Errorf("error connecting to browser: %w", err)
	}
	c.browser = browser
	return c, nil
}

func (c *chromium) CreatePDF(target Surface, cfg PDFConfig, done *Completion) error {
	t, ok := target.(DevToolsTarget)
	if !ok {
		return fmt.Errorf("chromium backend cannot export %v", target)
	}

	page, err := c.browser.PageFromTarget(proto.TargetTargetID(t.ID))
	if err != nil {
		return fmt.Errorf("error attaching to target %s: %w", t.ID, err)
	}

	go func() {
		done.Complete(printPage(page, cfg))
	}()
	return nil
}

func printPage(page *rod.Page, cfg PDFConfig) ([]byte, error) {
	r, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: cfg.PrintBackground,
	})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Close shuts the browser down if this backend launched it.
func (c *chromium) Close() error {
	if c.launcher == nil {
		return nil
	}
	err := c.browser.Close()
	c.launcher.Kill()
	c.launcher.Cleanup()
	return err
}
