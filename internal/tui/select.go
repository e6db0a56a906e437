package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/waypoint/internal/catalog"
)

// processItem is one entry of the process picker.
type processItem struct {
	proc     *catalog.Process
	selected bool
	implied  bool
}

func (i processItem) Title() string {
	mark := "[ ]"
	switch {
	case i.selected:
		mark = "[x]"
	case i.implied:
		mark = "[+]"
	}
	return fmt.Sprintf("%s %s", mark, i.proc.Title)
}

func (i processItem) Description() string {
	parts := []string{}
	if i.proc.Jurisdiction != catalog.JurisdictionNone {
		parts = append(parts, string(i.proc.Jurisdiction))
	}
	if i.implied {
		parts = append(parts, "required by your choices")
	}
	if summary := strings.TrimSpace(i.proc.Summary); summary != "" {
		parts = append(parts, summary)
	}
	return strings.Join(parts, " · ")
}

func (i processItem) FilterValue() string { return string(i.proc.Target) }

func (a *App) refreshPicker() {
	implied := map[catalog.Target]bool{}
	for _, t := range a.state.Implied() {
		implied[t] = true
	}
	procs := a.registry.Processes()
	items := make([]list.Item, 0, len(procs))
	for _, proc := range procs {
		items = append(items, processItem{
			proc:     proc,
			selected: a.state.IsSelected(proc.Target),
			implied:  implied[proc.Target],
		})
	}
	idx := a.picker.Index()
	a.picker.SetItems(items)
	if idx >= 0 && idx < len(items) {
		a.picker.Select(idx)
	}
}

func (a *App) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case " ", "x":
		item, ok := a.picker.SelectedItem().(processItem)
		if !ok {
			return a, nil
		}
		if err := a.state.Toggle(item.proc.Target); err != nil {
			a.err = err
			return a, nil
		}
		a.err = nil
		a.refreshPicker()
		return a, nil
	case "enter":
		return a, a.advance()
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

func (a *App) viewSelect() string {
	view := a.picker.View()
	implied := a.state.Implied()
	if len(implied) == 0 {
		return view
	}
	names := make([]string, 0, len(implied))
	for _, t := range implied {
		if proc, ok := a.registry.Lookup(t); ok {
			names = append(names, proc.Title)
		}
	}
	return view + "\n" + hintStyle.Render("Also needed: "+strings.Join(names, ", "))
}
