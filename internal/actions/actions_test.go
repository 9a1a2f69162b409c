package actions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLink = "https://chat.example.com/#narrow/stream/42-mobile-team/topic/release.202.2E0"

// stubActions replaces clipboard and browser with recorders for the test.
func stubActions(t *testing.T) (copied, opened *[]string) {
	t.Helper()

	origWrite, origUnsupported, origOpen := ClipboardWrite, ClipboardUnsupported, BrowserOpen
	t.Cleanup(func() {
		ClipboardWrite, ClipboardUnsupported, BrowserOpen = origWrite, origUnsupported, origOpen
	})

	copied, opened = &[]string{}, &[]string{}
	ClipboardUnsupported = false
	ClipboardWrite = func(text string) error {
		*copied = append(*copied, text)
		return nil
	}
	BrowserOpen = func(u string) error {
		*opened = append(*opened, u)
		return nil
	}

	return copied, opened
}

func TestCopyToClipboard(t *testing.T) {
	copied, _ := stubActions(t)

	require.NoError(t, CopyToClipboard(testLink))
	assert.Equal(t, []string{testLink}, *copied)
}

func TestCopyToClipboard_Unsupported(t *testing.T) {
	stubActions(t)
	ClipboardUnsupported = true

	err := CopyToClipboard(testLink)
	assert.ErrorIs(t, err, ErrClipboardUnsupported)
}

func TestOpenInBrowser(t *testing.T) {
	_, opened := stubActions(t)

	require.NoError(t, OpenInBrowser(testLink))
	assert.Equal(t, []string{testLink}, *opened)
}

func TestOpenInBrowser_RejectsOtherSchemes(t *testing.T) {
	_, opened := stubActions(t)

	for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "narrow/stream/5"} {
		err := OpenInBrowser(raw)
		assert.ErrorIs(t, err, ErrUnsupportedScheme, raw)
	}

	assert.Empty(t, *opened)
}

func TestDeliver(t *testing.T) {
	tests := []struct {
		name       string
		targets    Targets
		wantCopied int
		wantOpened int
	}{
		{"nothing", Targets{}, 0, 0},
		{"copy", Targets{Copy: true}, 1, 0},
		{"open", Targets{Open: true}, 0, 1},
		{"both", Targets{Copy: true, Open: true}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			copied, opened := stubActions(t)

			require.NoError(t, Deliver(testLink, tt.targets))
			assert.Len(t, *copied, tt.wantCopied)
			assert.Len(t, *opened, tt.wantOpened)
		})
	}
}

func TestDeliver_AttemptsEverything(t *testing.T) {
	_, opened := stubActions(t)
	ClipboardUnsupported = true

	browserErr := errors.New("no display")
	BrowserOpen = func(u string) error {
		*opened = append(*opened, u)
		return browserErr
	}

	err := Deliver(testLink, Targets{Copy: true, Open: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClipboardUnsupported)
	assert.ErrorIs(t, err, browserErr)
	assert.Len(t, *opened, 1)
}
