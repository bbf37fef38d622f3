package conversation

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

var (
	speakerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C42"))
	replyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0"))
	urgentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555"))
)

// Speaker labels the assistant's lines.
const Speaker = "Sous-Chef"

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...any)

// CLINotifier writes the assistant's replies to the terminal.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
	plain   bool
}

// NewCLINotifier creates a terminal notifier. If printFn is nil, lines
// go to stdout.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Plain disables styling, for piped output.
func (n *CLINotifier) Plain() *CLINotifier {
	n.plain = true
	return n
}

// Notify prints a reply.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	if n.plain {
		n.printFn("%s: %s", Speaker, message)
		return nil
	}
	n.printFn("%s %s", speakerStyle.Render(Speaker+":"), replyStyle.Render(message))
	return nil
}

// NotifyUrgent prints a prompt that needs the user's attention.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	if n.plain {
		n.printFn("%s: %s", Speaker, message)
		return nil
	}
	n.printFn("%s %s", speakerStyle.Render(Speaker+":"), urgentStyle.Render(message))
	return nil
}
