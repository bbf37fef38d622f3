package display

import (
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

const bannerArt = `
 ___                   ___ _         __
/ __| ___ _  _ ___ ___/ __| |_  ___ / _|
\__ \/ _ \ || (_-<|___| (__| ' \/ -_)  _|
|___/\___/\_,_/__/     \___|_||_\___|_|
`

// RenderBanner returns the banner art centred for the current terminal
// width.
func RenderBanner() string {
	return renderBanner(termWidth())
}

func renderBanner(width int) string {
	lines := strings.Split(strings.Trim(bannerArt, "\n"), "\n")

	maxW := 0
	for _, l := range lines {
		maxW = max(maxW, len(l))
	}
	pad := ""
	if width > maxW {
		pad = strings.Repeat(" ", (width-maxW)/2)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(pad)
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}
	return b.String()
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(os.Stdout.Fd())
}
