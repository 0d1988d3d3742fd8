package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/rostrum/internal/archive"
)

// PDFExporter renders an archived debate as PDF.
type PDFExporter struct{}

// Export writes the debate as PDF.
func (e *PDFExporter) Export(record *archive.Record, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(record.Metadata.Topic), "", "C", false)
	pdf.Ln(5)

	// Outcome section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Outcome")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "Winner:", record.Metadata.Winner)
	e.addMetadataRow(pdf, "Rounds:", fmt.Sprintf("%d", record.Metadata.TotalRounds))
	for _, snap := range record.Configuration {
		if snap.Role != "debater" {
			continue
		}
		score := record.Metadata.FinalScores[snap.Name]
		e.addMetadataRow(pdf, snap.Name+":", fmt.Sprintf("%d round(s) won", score))
	}
	pdf.Ln(5)

	// Participants section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Participants")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, snap := range record.Configuration {
		e.addParticipantBox(pdf, snap)
		pdf.Ln(3)
	}
	pdf.Ln(5)

	// Transcript
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Transcript")
	pdf.Ln(8)

	if len(record.Transcript) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No messages recorded.")
		pdf.Ln(6)
	} else {
		currentRound := 0
		for _, msg := range record.Transcript {
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			if msg.Round != currentRound {
				currentRound = msg.Round
				pdf.SetFont("Arial", "B", 11)
				pdf.Cell(0, 7, fmt.Sprintf("Round %d", currentRound))
				pdf.Ln(7)
			}

			if msg.Role == "judge" {
				pdf.SetFillColor(255, 235, 200) // Light amber
			} else {
				pdf.SetFillColor(200, 230, 255) // Light blue
			}

			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("%s (%s)", msg.Agent, msg.Timestamp.Format("3:04 PM"))
			pdf.CellFormat(0, 7, header, "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
			pdf.MultiCell(0, 5, e.sanitizeText(msg.Content), "", "", false)
			pdf.Ln(5)
		}
	}

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from rostrum", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// Helper to add a metadata row
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(40, 5, e.sanitizeText(label))
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, e.sanitizeText(value))
	pdf.Ln(5)
}

// Helper to add a participant box
func (e *PDFExporter) addParticipantBox(pdf *gofpdf.Fpdf, snap archive.ParticipantSnapshot) {
	pdf.SetFillColor(230, 230, 230)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, e.sanitizeText(snap.Name), "", 1, "", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(255, 255, 255)
	pdf.Cell(25, 5, "Role:")
	pdf.Cell(0, 5, snap.Role)
	pdf.Ln(5)
	if snap.Persona != "" {
		pdf.Cell(25, 5, "Persona:")
		pdf.MultiCell(0, 5, e.sanitizeText(snap.Persona), "", "", false)
	}
}

// Sanitize text for PDF (remove problematic characters)
func (e *PDFExporter) sanitizeText(text string) string {
	// gofpdf uses Windows-1252 encoding by default
	// Replace common Unicode characters that might cause issues
	replacer := strings.NewReplacer(
		"\u2018", "'",  // Left single quote
		"\u2019", "'",  // Right single quote
		"\u201C", "\"", // Left double quote
		"\u201D", "\"", // Right double quote
		"\u2013", "-",  // En dash
		"\u2014", "--", // Em dash
		"\u2026", "...", // Ellipsis
		"\u2022", "*",  // Bullet
		"\u00A0", " ",  // Non-breaking space
	)
	return replacer.Replace(text)
}
