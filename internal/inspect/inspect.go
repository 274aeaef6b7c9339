// Package inspect provides an interactive BubbleTea REPL: type a
// sentence, see its BILOU-decoded entity spans highlighted inline.
//
// Layout:
//
//	┌─────────────────────────────────────┐
//	│  nertag  inspect                     │  ← header
//	│  ❯ <sentence input>                  │  ← input bar
//	│  ─────────────────────────────────   │  ← divider
//	│  [PER Alice] met [LOC Paris] today   │  ← tagged rendering
//	│  PER   Alice                         │  ← span list
//	│  LOC   Paris                         │
//	│  ─────────────────────────────────   │  ← divider
//	│  2 entities  enter tag  ^q quit       │  ← status bar
//	└─────────────────────────────────────┘
package inspect

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/screenager/nertag/internal/engine"
	"github.com/screenager/nertag/internal/feature"
	"github.com/screenager/nertag/internal/tokenize"
)

var (
	colorAccent = lipgloss.Color("#7C6AF7")
	colorDim    = lipgloss.Color("#555555")
	colorMuted  = lipgloss.Color("#888888")
	colorText   = lipgloss.Color("#DDDDDD")
	colorEntity = lipgloss.Color("#5AF078")
	colorErr    = lipgloss.Color("#FF6B6B")

	sTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	sAccent = lipgloss.NewStyle().Foreground(colorAccent)
	sDim    = lipgloss.NewStyle().Foreground(colorDim)
	sMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	sEntity = lipgloss.NewStyle().Foreground(colorEntity).Bold(true)
	sErr    = lipgloss.NewStyle().Foreground(colorErr)
	sHint   = lipgloss.NewStyle().Foreground(colorDim).Background(lipgloss.Color("#111111"))
	sDiv    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

type taggedMsg struct {
	tokens   []feature.Token
	entities []feature.Entity
}

type errMsg struct{ err error }

// Model is the BubbleTea application model for interactive tagging.
type Model struct {
	eng   *engine.Engine
	tok   *tokenize.Tokenizer
	input textinput.Model

	tokens   []feature.Token
	entities []feature.Entity
	err      error
	width    int
}

// New creates an inspect Model backed by a loaded Engine.
func New(eng *engine.Engine) Model {
	ti := textinput.New()
	ti.Placeholder = "type a sentence…"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = sAccent
	ti.Prompt = "❯ "
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)

	return Model{eng: eng, tok: tokenize.New(), input: ti}
}

// Init is the BubbleTea init hook.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update processes messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = m.width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			return m, tagCmd(m.eng, m.tok, text)
		}

	case taggedMsg:
		m.tokens = msg.tokens
		m.entities = msg.entities
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	divider := sDiv.Render(strings.Repeat("─", clamp(m.width-2, 10, 200)))

	fmt.Fprintln(&b, "  "+sTitle.Render("nertag")+"  "+sMuted.Render("inspect"))
	fmt.Fprintln(&b, "  "+m.input.View())
	fmt.Fprintln(&b, "  "+divider)

	if m.err != nil {
		fmt.Fprintln(&b, sErr.Render("  error: "+m.err.Error()))
	} else if m.tokens == nil {
		fmt.Fprintln(&b, sMuted.Render("  type a sentence and press enter"))
	} else {
		fmt.Fprintln(&b, "  "+renderInline(m.tokens, m.entities))
		fmt.Fprintln(&b, "")
		for _, e := range m.entities {
			fmt.Fprintf(&b, "  %s   %s\n", sEntity.Render(padRight(e.Type, 6)), spanText(m.tokens, e))
		}
	}

	fmt.Fprintln(&b, "  "+divider)
	fmt.Fprint(&b, sHint.Render(fmt.Sprintf("  %d entities  enter tag  ^q quit", len(m.entities))))
	return b.String()
}

func tagCmd(eng *engine.Engine, tok *tokenize.Tokenizer, text string) tea.Cmd {
	return func() tea.Msg {
		tokens := tok.Tokens(text)
		entities := eng.Recognize(tokens)
		return taggedMsg{tokens: tokens, entities: entities}
	}
}

func renderInline(tokens []feature.Token, entities []feature.Entity) string {
	covered := make([]string, len(tokens))
	for _, e := range entities {
		for i := 0; i < e.Length && e.Start+i < len(tokens); i++ {
			covered[e.Start+i] = e.Type
		}
	}
	var words []string
	for i, tok := range tokens {
		if covered[i] != "" {
			words = append(words, sEntity.Render("["+covered[i]+" "+tok.Form+"]"))
		} else {
			words = append(words, tok.Form)
		}
	}
	return strings.Join(words, " ")
}

func spanText(tokens []feature.Token, e feature.Entity) string {
	var words []string
	for i := 0; i < e.Length && e.Start+i < len(tokens); i++ {
		words = append(words, tokens[e.Start+i].Form)
	}
	return strings.Join(words, " ")
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
