// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent recipe progress bar and an input
// prompt at the bottom of the terminal. All application output is
// printed above the rendered area via Program.Println / Printf,
// ensuring concurrent writes never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/souschef/internal/engine"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	recipeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const prompt = "chef> "

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may
// safely call [UI.Println], [UI.Printf], [UI.SetProgress] and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI() *UI {
	return &UI{
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe. Before the
// program starts or after it quits, it falls back to fmt.Println.
func (u *UI) Println(a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line.
// Thread-safe.
func (u *UI) Printf(format string, a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines. It is never closed; use
// QuitChan to detect that the UI has gone away.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("chef") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// PrintHint prints a dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// SetProgress updates the status bar. Safe to call from any goroutine.
func (u *UI) SetProgress(p engine.Progress) {
	if u.program != nil && !u.done.Load() {
		u.program.Send(progressMsg(p))
	}
}

// WaitReady blocks until the Bubble Tea event loop is running. It
// returns false if the UI quit before becoming ready.
func (u *UI) WaitReady() bool {
	select {
	case <-u.readyCh:
		return true
	case <-u.quitCh:
		return false
	}
}

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	u.program = tea.NewProgram(newModel(u.inputCh, u.readyCh, u.PrintUserInput))
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type progressMsg engine.Progress

type model struct {
	input   textinput.Model
	bar     progress.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	status  *engine.Progress
	width   int
}

func newModel(inputCh chan<- string, readyCh chan struct{}, echo func(string)) model {
	ti := textinput.New()
	// A plain-text prompt keeps the textinput width math correct; styled
	// prompts add invisible ANSI bytes.
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60 // updated on first WindowSizeMsg

	return model{
		input:   ti,
		bar:     progress.New(progress.WithGradient("#fde68a", "#bbf7d0"), progress.WithoutPercentage(), progress.WithWidth(20)),
		inputCh: inputCh,
		readyCh: readyCh,
		echoFn:  echo,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, signalReady(m.readyCh))
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) == "" {
				return m, nil
			}
			select {
			case m.inputCh <- v:
			default:
				// Nobody is reading; drop rather than block the event loop.
			}
			// Echo outside Update so it won't deadlock on msgs.
			echoFn := m.echoFn
			return m, func() tea.Msg {
				echoFn(v)
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt)
		}
		return m, nil

	case progressMsg:
		p := engine.Progress(msg)
		m.status = &p
		return m, tea.SetWindowTitle(titleFor(p))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	if m.status != nil {
		b.WriteString(m.renderBar())
		b.WriteByte('\n')
	}
	// Blank line before prompt for visual separation.
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	p := *m.status
	parts := []string{recipeStyle.Render(p.RecipeName)}

	switch {
	case p.Completed:
		parts = append(parts, doneStyle.Render("done!"))
	case p.Interrupted:
		parts = append(parts, stoppedStyle.Render(fmt.Sprintf("stopped at step %d/%d", p.Step, p.TotalSteps)))
	default:
		parts = append(parts, labelStyle.Render(fmt.Sprintf("step %d/%d", p.Step, p.TotalSteps)))
	}
	parts = append(parts, m.bar.ViewAs(p.Percent/100)+labelStyle.Render(fmt.Sprintf(" %3.0f%%", p.Percent)))

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "
	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

func titleFor(p engine.Progress) string {
	switch {
	case p.Completed:
		return "Sous-Chef: " + p.RecipeName + " done"
	case p.Interrupted:
		return "Sous-Chef"
	}
	return fmt.Sprintf("Sous-Chef: %s (%d/%d)", p.RecipeName, p.Step, p.TotalSteps)
}
