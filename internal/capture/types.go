// Package capture turns a post URL into screenshot bytes via a headless browser.
package capture

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// ErrCaptureFailed is the generic failure surfaced to callers. The underlying
// engine error is logged server-side and never leaks to untrusted clients.
var ErrCaptureFailed = errors.New("capture failed")

// Theme selects the rendering style applied before the screenshot is taken.
type Theme int

// Theme codes match the capture engine's numeric enumeration.
const (
	ThemeLight Theme = iota
	ThemeDark
	ThemeBlack
)

func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	case ThemeBlack:
		return "black"
	default:
		return "unknown"
	}
}

// ThemeFromInt converts a numeric theme code, substituting fallback for any
// out-of-range value rather than rejecting the request.
func ThemeFromInt(n int, fallback Theme) Theme {
	if n < int(ThemeLight) || n > int(ThemeBlack) {
		return fallback
	}
	return Theme(n)
}

// ThemeChoice is a theme selection decided once at the input boundary:
// either a concrete theme or a request for a random one.
type ThemeChoice struct {
	random bool
	theme  Theme
}

// FixedTheme wraps a concrete theme.
func FixedTheme(t Theme) ThemeChoice {
	return ThemeChoice{theme: t}
}

// RandomTheme marks the selection as random.
func RandomTheme() ThemeChoice {
	return ThemeChoice{random: true}
}

// IsRandom reports whether the choice defers to capture time.
func (c ThemeChoice) IsRandom() bool {
	return c.random
}

// Resolve returns the concrete theme, picking uniformly when random.
func (c ThemeChoice) Resolve() Theme {
	if !c.random {
		return c.theme
	}
	return Theme(rand.IntN(3))
}

// ResolveAt returns the theme for position i in a batch. Random selections
// cycle through the three themes so a batch gets visual variety.
func (c ThemeChoice) ResolveAt(i int) Theme {
	if !c.random {
		return c.theme
	}
	return Theme(i % 3)
}

// ParseThemeChoice interprets the form's night_mode field. The literal
// "random" defers the choice; anything unparseable or out of range falls
// back to the given theme.
func ParseThemeChoice(s string, fallback Theme) ThemeChoice {
	if s == "random" {
		return RandomTheme()
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return FixedTheme(fallback)
	}
	return FixedTheme(ThemeFromInt(n, fallback))
}

// Request describes one screenshot capture. Immutable once constructed.
type Request struct {
	URL            string
	Theme          Theme
	Lang           string
	ShowEngagement bool
}

// Result holds the captured image and its suggested download name.
// Absence of a Result is always an error, never a zero-length blob.
type Result struct {
	Bytes    []byte
	Filename string
}

// RenderOptions are passed through to the capture engine.
type RenderOptions struct {
	Theme          Theme
	Lang           string
	ShowEngagement bool
}

// Engine renders a post page and writes the screenshot to outPath.
// The file-path contract is the engine's; the Invoker stages and cleans up.
type Engine interface {
	Render(ctx context.Context, url string, opts RenderOptions, outPath string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Accepted post-URL prefixes, exact and case-sensitive.
var postURLPrefixes = []string{
	"https://x.com/",
	"https://twitter.com/",
}

// IsValidPostURL reports whether a URL points at a supported post domain.
func IsValidPostURL(u string) bool {
	for _, prefix := range postURLPrefixes {
		if strings.HasPrefix(u, prefix) {
			return true
		}
	}
	return false
}
