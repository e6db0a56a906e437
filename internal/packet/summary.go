package packet

import (
	"fmt"
	"strings"
)

// Summary renders the packet contents as markdown: one section per process
// with its documents and any blank fields left for the person to complete.
func (p *Packet) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Document packet\n\nPrepared %s.\n", p.Created.Format("January 2, 2006"))
	if len(p.Entries) == 0 {
		b.WriteString("\nNo documents apply to the answers provided.\n")
		return b.String()
	}
	current := ""
	for _, entry := range p.Entries {
		if entry.ProcessTitle != current {
			current = entry.ProcessTitle
			fmt.Fprintf(&b, "\n## %s\n\n", current)
		}
		fmt.Fprintf(&b, "- **%s** (%s)\n", entry.DocumentName, entryKind(entry))
		if blank := entry.Blank(); len(blank) > 0 {
			fmt.Fprintf(&b, "  - left blank: %s\n", strings.Join(blank, ", "))
		}
	}
	return b.String()
}

// Blank lists the labels of text fields the entry left empty.
func (e Entry) Blank() []string {
	var out []string
	for _, value := range e.Values {
		if value.Kind == FieldCheck || value.Text != "" {
			continue
		}
		label := value.Label
		if label == "" {
			label = value.Field
		}
		out = append(out, label)
	}
	return out
}
