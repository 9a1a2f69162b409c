// Package actions provides the side effects a produced link can trigger:
// clipboard copy and browser open.
package actions

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

// ErrClipboardUnsupported indicates the platform has no clipboard support.
var ErrClipboardUnsupported = errors.New("clipboard not supported on this platform")

// ErrUnsupportedScheme is returned when asked to open something that is not
// an http(s) URL.
var ErrUnsupportedScheme = errors.New("refusing to open non-http(s) URL")

// ClipboardWrite is a function variable for clipboard writes (swappable in tests).
var ClipboardWrite = clipboard.WriteAll

// ClipboardUnsupported mirrors clipboard.Unsupported (swappable in tests).
var ClipboardUnsupported = clipboard.Unsupported

// BrowserOpen is a function variable for opening URLs (swappable in tests).
var BrowserOpen = browser.OpenURL

// CopyToClipboard copies text to the system clipboard.
// Returns a descriptive error if clipboard is unsupported on the platform.
func CopyToClipboard(text string) error {
	if ClipboardUnsupported {
		return ErrClipboardUnsupported
	}

	return ClipboardWrite(text)
}

// OpenInBrowser opens the given URL in the default browser. Only http and
// https URLs are handed to the OS.
func OpenInBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", rawURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}

	return BrowserOpen(rawURL)
}

// Targets selects which side effects Deliver performs.
type Targets struct {
	Copy bool
	Open bool
}

// Deliver copies and/or opens link. Every requested action is attempted;
// failures are joined.
func Deliver(link string, t Targets) error {
	var errs []error

	if t.Copy {
		if err := CopyToClipboard(link); err != nil {
			errs = append(errs, fmt.Errorf("clipboard: %w", err))
		}
	}

	if t.Open {
		if err := OpenInBrowser(link); err != nil {
			errs = append(errs, fmt.Errorf("browser: %w", err))
		}
	}

	return errors.Join(errs...)
}
