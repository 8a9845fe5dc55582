package components

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scrollkitty/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

// Command is one palette verb. Usage lists its arguments.
type Command struct {
	Name    string
	Usage   string
	Summary string
}

// Commands must stay in sync with the switch in app/model.go executePalette.
var Commands = []Command{
	{Name: "grant", Usage: "<app> <hp> [minutes]", Summary: "spend health on an app"},
	{Name: "evaluate", Summary: "ask the kitty for a word"},
	{Name: "intercept", Summary: "show what the kitty allows now"},
	{Name: "reset", Summary: "refill health and zero today's counters"},
	{Name: "refresh", Summary: "reload health and the timeline"},
}

var hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)

// Palette is the command prompt. Tab completes the verb, and for grant the
// tracked app id. The border takes the current band's color.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
	apps    []string
	band    string
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "grant, evaluate, intercept…"
	ti.CharLimit = 128
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty input and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// SetApps records the tracked app ids offered for grant completion.
func (p *Palette) SetApps(apps []string) {
	p.apps = append([]string(nil), apps...)
	sort.Strings(p.apps)
}

func (p *Palette) SetBand(band string) { p.band = band }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			p.input.SetValue(Complete(p.input.Value(), p.apps))
			p.input.CursorEnd()
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// Complete extends the word being typed: the verb while typing the first
// word, the app id while typing grant's first argument. Several matches
// extend to their common prefix; none leaves input unchanged.
func Complete(input string, apps []string) string {
	fields := strings.Fields(input)
	trailing := strings.HasSuffix(input, " ")
	switch {
	case len(fields) == 0:
		return input
	case len(fields) == 1 && !trailing:
		names := make([]string, len(Commands))
		for i, c := range Commands {
			names[i] = c.Name
		}
		return completeWord(fields[0], names, input, "")
	case fields[0] == "grant" && len(fields) == 2 && !trailing:
		return completeWord(fields[1], apps, input, "grant ")
	}
	return input
}

func completeWord(word string, options []string, input, head string) string {
	var matches []string
	for _, o := range options {
		if strings.HasPrefix(o, word) {
			matches = append(matches, o)
		}
	}
	switch len(matches) {
	case 0:
		return input
	case 1:
		return head + matches[0] + " "
	}
	prefix := matches[0]
	for _, m := range matches[1:] {
		for !strings.HasPrefix(m, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return head + prefix
}

// suggestions lists what fits after the current input.
func (p Palette) suggestions() []string {
	value := p.input.Value()
	fields := strings.Fields(value)
	if len(fields) > 0 && fields[0] == "grant" && (len(fields) > 1 || strings.HasSuffix(value, " ")) {
		if len(p.apps) == 0 {
			return []string{"no tracked apps; run scrollkitty init --apps"}
		}
		return []string{"grant " + Commands[0].Usage, "apps: " + strings.Join(p.apps, ", ")}
	}
	prefix := ""
	if len(fields) > 0 {
		prefix = strings.ToLower(fields[0])
	}
	var out []string
	for _, c := range Commands {
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		line := c.Name
		if c.Usage != "" {
			line += " " + c.Usage
		}
		out = append(out, line+"  "+c.Summary)
	}
	return out
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Band(p.band).Render("What now?") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if hints := p.suggestions(); len(hints) > 0 {
		sb.WriteString("\n")
		for _, h := range hints {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.BandColor(p.band)).
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(0, 1).
		Width(w - 2).
		Render(sb.String())
}
