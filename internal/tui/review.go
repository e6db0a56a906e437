package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/kingrea/waypoint/internal/wizard"
)

const guidePreviewLines = 6

func (a *App) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.back()
		return a, nil
	case "enter":
		return a, a.advance()
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) refreshViewport() {
	var doc string
	switch a.state.Step() {
	case wizard.StepReview:
		doc = a.reviewMarkdown()
	case wizard.StepDone:
		doc = a.doneMarkdown()
	default:
		return
	}
	a.viewport.SetContent(a.renderMarkdown(doc))
}

func (a *App) renderMarkdown(doc string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(a.guideStyle),
		glamour.WithWordWrap(max(20, a.viewport.Width-2)),
	)
	if err != nil {
		return doc
	}
	out, err := renderer.Render(doc)
	if err != nil {
		return doc
	}
	return out
}

// reviewMarkdown lists the selection, the documents the answers call for, the
// answers themselves and a preview of each guide.
func (a *App) reviewMarkdown() string {
	person := a.state.Finalize()
	var b strings.Builder
	b.WriteString("# Review\n\n## Processes\n\n")
	implied := map[string]bool{}
	for _, t := range a.state.Implied() {
		implied[string(t)] = true
	}
	var guides []string
	for _, proc := range a.state.Processes() {
		note := ""
		if implied[string(proc.Target)] {
			note = " *(required by your choices)*"
		}
		fmt.Fprintf(&b, "### %s%s\n\n", proc.Title, note)
		docs := proc.Includes(person)
		if len(docs) == 0 {
			b.WriteString("No documents apply.\n\n")
			continue
		}
		for _, doc := range docs {
			kind := "form"
			if doc.Template == "" {
				kind = "instructions"
			}
			fmt.Fprintf(&b, "- %s (%s)\n", doc.Name, kind)
			if doc.Guide != "" {
				guides = append(guides, doc.Guide)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Your answers\n\n| Question | Answer |\n|---|---|\n")
	for _, f := range a.state.NeededFields() {
		answer := a.state.Answer(f.Name)
		if answer == "" {
			answer = "*blank*"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", f.Title, escapeCell(answer))
	}

	seen := map[string]bool{}
	for _, id := range guides {
		if seen[id] {
			continue
		}
		seen[id] = true
		text, ok := a.registry.Guide(id)
		if !ok {
			continue
		}
		b.WriteString("\n")
		b.WriteString(previewGuide(text))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) doneMarkdown() string {
	if a.packet == nil {
		return "# Done\n"
	}
	var b strings.Builder
	b.WriteString(a.packet.Summary())
	if a.result.PDFPath != "" {
		fmt.Fprintf(&b, "\n---\n\nSaved to `%s`\n", a.result.PDFPath)
	}
	if a.result.OutputPath != "" {
		fmt.Fprintf(&b, "\nCopy in `%s`\n", a.result.OutputPath)
	}
	return b.String()
}

// previewGuide keeps the heading and first lines of a guide and demotes its
// headings below the review sections.
func previewGuide(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > guidePreviewLines {
		lines = append(lines[:guidePreviewLines], "…")
	}
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			lines[i] = "##" + line
		}
	}
	return strings.Join(lines, "\n")
}

func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
