// Package ui writes status lines to the terminal, colored by role when the
// terminal and --color allow it.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// ErrInvalidColor is returned when an unsupported --color value is given.
var ErrInvalidColor = errors.New("invalid --color value")

// Color modes accepted by --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Role selects how a status line is styled.
type Role int

const (
	RolePlain Role = iota
	RoleSuccess
	RoleWarning
	RoleMuted
)

// prefix and hex color per role; muted lines are faint instead of colored.
var roles = map[Role]struct {
	prefix string
	color  string
}{
	RoleSuccess: {color: "#22c55e"},
	RoleWarning: {prefix: "warning: ", color: "#f59e0b"},
}

// Options configures the UI.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Color  string
}

// UI holds one printer per output stream.
type UI struct {
	out *Printer
	err *Printer
}

// New creates a UI. An empty Color means auto.
func New(opts Options) (*UI, error) {
	mode, err := parseColorMode(opts.Color)
	if err != nil {
		return nil, err
	}

	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	return &UI{
		out: newPrinter(opts.Stdout, mode),
		err: newPrinter(opts.Stderr, mode),
	}, nil
}

func parseColorMode(s string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(s))

	switch mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q (expected auto|always|never)", ErrInvalidColor, mode)
	}
}

// profileFor resolves the color profile for w. NO_COLOR beats --color=always.
func profileFor(o *termenv.Output, mode string) termenv.Profile {
	if termenv.EnvNoColor() {
		return termenv.Ascii
	}

	switch mode {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		return termenv.TrueColor
	default:
		return o.Profile
	}
}

// Out returns the stdout printer.
func (u *UI) Out() *Printer { return u.out }

// Err returns the stderr printer. Status lines go here so stdout stays
// pipeable.
func (u *UI) Err() *Printer { return u.err }

// Printer writes role-styled lines to one stream.
type Printer struct {
	o       *termenv.Output
	profile termenv.Profile
}

func newPrinter(w io.Writer, mode string) *Printer {
	o := termenv.NewOutput(w, termenv.WithProfile(termenv.EnvColorProfile()))

	return &Printer{o: o, profile: profileFor(o, mode)}
}

// ColorEnabled reports whether this printer emits escape sequences.
func (p *Printer) ColorEnabled() bool { return p.profile != termenv.Ascii }

// Style renders s for role without writing it.
func (p *Printer) Style(role Role, s string) string {
	s = roles[role].prefix + s
	if !p.ColorEnabled() {
		return s
	}

	switch role {
	case RoleMuted:
		return termenv.String(s).Faint().String()
	case RolePlain:
		return s
	default:
		return termenv.String(s).Foreground(p.profile.Color(roles[role].color)).String()
	}
}

// Linef writes one formatted line styled for role.
func (p *Printer) Linef(role Role, format string, args ...any) {
	_, _ = io.WriteString(p.o, p.Style(role, fmt.Sprintf(format, args...))+"\n")
}

// Successf reports a completed side effect, such as a clipboard copy.
func (p *Printer) Successf(format string, args ...any) { p.Linef(RoleSuccess, format, args...) }

// Warnf reports a non-fatal problem, prefixed with "warning: ".
func (p *Printer) Warnf(format string, args ...any) { p.Linef(RoleWarning, format, args...) }

// Dimf writes a hint.
func (p *Printer) Dimf(format string, args ...any) { p.Linef(RoleMuted, format, args...) }

type uiCtxKey struct{}

// WithUI stores the UI in the context.
func WithUI(ctx context.Context, u *UI) context.Context {
	return context.WithValue(ctx, uiCtxKey{}, u)
}

// FromContext retrieves the UI from the context, or nil.
func FromContext(ctx context.Context) *UI {
	u, _ := ctx.Value(uiCtxKey{}).(*UI)

	return u
}
