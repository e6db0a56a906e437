package packet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

var pageSizes = map[string]fpdf.SizeType{
	"letter": {Wd: 612, Ht: 792},
	"legal":  {Wd: 612, Ht: 1008},
	"a4":     {Wd: 595.28, Ht: 841.89},
}

const (
	margin     = 54.0
	lineHeight = 14.0
	boxHeight  = 16.0
	checkSize  = 10.0
)

// Render draws pkt as a PDF: a cover page listing the documents, then each
// filled template followed by its guide.
func Render(pkt *Packet) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(pkt.Created)
	pdf.SetModificationDate(pkt.Created)
	pdf.SetTitle("Document packet "+pkt.ID, true)
	pdf.SetCreator("waypoint", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	renderCover(pdf, tr, pkt)
	for i := range pkt.Entries {
		entry := &pkt.Entries[i]
		if entry.Template != nil {
			renderForm(pdf, tr, entry)
		}
		if entry.Guide != "" {
			renderGuide(pdf, tr, entry)
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("packet: render: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("packet: render: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCover(pdf *fpdf.Fpdf, tr func(string) string, pkt *Packet) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 28, tr("Your document packet"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, tr(fmt.Sprintf("Prepared %s  |  %s", pkt.Created.Format("January 2, 2006"), pkt.ID)), "", 1, "L", false, 0, "")
	pdf.Ln(lineHeight)
	if len(pkt.Entries) == 0 {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.MultiCell(0, lineHeight, tr("No documents apply to the answers provided."), "", "L", false)
		return
	}
	current := ""
	for i, entry := range pkt.Entries {
		if entry.ProcessTitle != current {
			current = entry.ProcessTitle
			pdf.Ln(lineHeight / 2)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, lineHeight+2, tr(current), "", "L", false)
		}
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf("%d. %s (%s)", i+1, entry.DocumentName, entryKind(entry))), "", "L", false)
	}
}

func renderForm(pdf *fpdf.Fpdf, tr func(string) string, entry *Entry) {
	tpl := entry.Template
	size := pageSizes[tpl.Size]
	for page := 1; page <= tpl.Pages; page++ {
		pdf.AddPageFormat("P", size)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetXY(margin, margin)
		pdf.CellFormat(0, 18, tr(tpl.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 12, tr(fmt.Sprintf("%s  |  page %d of %d", entry.ProcessTitle, page, tpl.Pages)), "", 1, "L", false, 0, "")
		for _, value := range entry.Values {
			if value.Page != page {
				continue
			}
			drawValue(pdf, tr, value)
		}
	}
}

func drawValue(pdf *fpdf.Fpdf, tr func(string) string, value Value) {
	if value.Kind == FieldCheck {
		pdf.SetLineWidth(0.8)
		pdf.Rect(value.X, value.Y, checkSize, checkSize, "D")
		if value.Checked {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetXY(value.X, value.Y)
			pdf.CellFormat(checkSize, checkSize, "X", "", 0, "C", false, 0, "")
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(value.X+checkSize+6, value.Y)
		pdf.CellFormat(value.Width-checkSize-6, checkSize, tr(value.Label), "", 0, "L", false, 0, "")
		return
	}
	if value.Label != "" {
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetXY(value.X, value.Y-9)
		pdf.CellFormat(value.Width, 8, tr(value.Label), "", 0, "L", false, 0, "")
	}
	pdf.SetFont("Courier", "", 11)
	pdf.SetXY(value.X, value.Y)
	pdf.CellFormat(value.Width, boxHeight, tr(value.Text), "B", 0, "L", false, 0, "")
}

func renderGuide(pdf *fpdf.Fpdf, tr func(string) string, entry *Entry) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 18, tr("How to file: "+entry.DocumentName), "", "L", false)
	pdf.Ln(lineHeight / 2)
	for _, line := range strings.Split(entry.Guide, "\n") {
		text, style, size := guideLine(line)
		if text == "" {
			pdf.Ln(lineHeight / 2)
			continue
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.MultiCell(0, lineHeight, tr(text), "", "L", false)
	}
}

// guideLine strips light markdown from a guide line and picks a font for it.
func guideLine(line string) (string, string, float64) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return "", "", 0
	case strings.HasPrefix(trimmed, "#"):
		return strings.TrimSpace(strings.TrimLeft(trimmed, "#")), "B", 12
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		return "  - " + stripEmphasis(trimmed[2:]), "", 11
	default:
		return stripEmphasis(trimmed), "", 11
	}
}

func stripEmphasis(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	return strings.ReplaceAll(text, "`", "")
}

func entryKind(entry Entry) string {
	switch {
	case entry.Template != nil && entry.Guide != "":
		return "form and instructions"
	case entry.Template != nil:
		return "form"
	default:
		return "instructions"
	}
}
