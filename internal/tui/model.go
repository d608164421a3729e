// Package tui is a terminal chat client for the helpdesk API.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Asker is the TUI-facing subset of the chat client.
type Asker interface {
	Ask(question, location string) (*ChatAnswer, error)
}

type answerMsg struct {
	answer *ChatAnswer
	err    error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	client     Asker
	location   string
	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	status     string
	waiting    bool
	ready      bool
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headerStyle    = lipgloss.NewStyle().Bold(true)
	subheaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// New creates a chat model. location is attached to every question so
// answers favor nearby services.
func New(client Asker, location string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about local services and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		client:   client,
		location: location,
		input:    ti,
		viewport: vp,
		status:   "Connected. Ask a question.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header + subheader, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.transcript = append(m.transcript, renderAnswer(msg.answer))
			m.status = fmt.Sprintf("Answered in %dms (confidence: %s)",
				msg.answer.LatencyMS, msg.answer.Confidence)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.transcript = append(m.transcript, questionStyle.Render("You: ")+q)
			m.input.SetValue("")
			m.status = "Thinking..."
			m.waiting = true
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, m.ask(q)
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Community Helpdesk")
	sub := subheaderStyle.Render("Location: " + displayLocation(m.location))
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + sub + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.client.Ask(question, m.location)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No messages yet. Ask about hospitals, utilities, schools, and other local services."
	}
	return strings.Join(m.transcript, "\n\n")
}

func renderAnswer(a *ChatAnswer) string {
	var b strings.Builder
	b.WriteString(answerStyle.Render("Helpdesk: " + a.Answer))
	if a.ServiceCount > 0 {
		b.WriteString("\n")
		for _, s := range a.Services {
			b.WriteString(metaStyle.Render(fmt.Sprintf(
				"\n  • %s (%s) — %s  score=%.3f",
				s.ServiceName, s.Category, s.Address, s.SimilarityScore)))
		}
	}
	return b.String()
}

func displayLocation(location string) string {
	if location == "" {
		return "not set"
	}
	return location
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
