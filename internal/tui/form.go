package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/waypoint/internal/catalog"
)

// loadPage builds one text input per field on the current details page.
func (a *App) loadPage() {
	fields, _, _ := a.state.Page()
	a.fields = fields
	a.inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = "› "
		in.CharLimit = 128
		in.Width = max(10, a.width-10)
		in.Placeholder = placeholder(f)
		in.SetValue(a.state.Answer(f.Name))
		a.inputs[i] = in
	}
	a.focus = 0
	a.focusInput()
}

func placeholder(f catalog.Field) string {
	switch f.Kind {
	case catalog.KindCheckbox:
		return "yes / no"
	case catalog.KindDate:
		return "YYYY-MM-DD"
	case catalog.KindSelect:
		return strings.Join(f.OptionValues(), " / ")
	}
	return f.Help
}

func (a *App) focusInput() {
	for i := range a.inputs {
		if i == a.focus {
			a.inputs[i].Focus()
			continue
		}
		a.inputs[i].Blur()
	}
}

func (a *App) values() map[string]string {
	out := make(map[string]string, len(a.fields))
	for i, f := range a.fields {
		out[f.Name] = a.inputs[i].Value()
	}
	return out
}

// submitPage merges the page answers. The page is reloaded afterwards since
// an answer can change which fields are needed.
func (a *App) submitPage() bool {
	if len(a.fields) == 0 {
		return true
	}
	if err := a.state.Submit(a.values()); err != nil {
		a.err = err
		return false
	}
	a.err = nil
	return true
}

func (a *App) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.back()
		return a, nil
	case "tab", "down":
		if len(a.inputs) > 0 {
			a.focus = (a.focus + 1) % len(a.inputs)
			a.focusInput()
		}
		return a, nil
	case "shift+tab", "up":
		if len(a.inputs) > 0 {
			a.focus = (a.focus - 1 + len(a.inputs)) % len(a.inputs)
			a.focusInput()
		}
		return a, nil
	case "enter":
		if a.focus < len(a.inputs)-1 {
			a.focus++
			a.focusInput()
			return a, nil
		}
		if !a.submitPage() {
			return a, nil
		}
		return a, a.advance()
	case "ctrl+s":
		if a.submitPage() {
			a.save()
			a.statusMsg = "Answers saved"
			a.loadPage()
		}
		return a, nil
	}
	if len(a.inputs) == 0 {
		return a, nil
	}
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return a, cmd
}

func (a *App) viewDetails() string {
	_, page, total := a.state.Page()
	if total == 0 {
		return "No details are needed for your choices. Press Enter to review."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Your details (page %d of %d)", page+1, total)))
	b.WriteString("\n\n")
	for i, f := range a.fields {
		b.WriteString(labelStyle.Render(f.Title))
		if f.Help != "" && f.Kind != catalog.KindDate {
			b.WriteString(" " + mutedStyle.Render(f.Help))
		}
		b.WriteString("\n")
		b.WriteString(a.inputs[i].View())
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
