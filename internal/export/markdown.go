package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/alienxp03/rostrum/internal/archive"
)

// MarkdownExporter renders an archived debate as Markdown.
type MarkdownExporter struct{}

// Export writes the debate as Markdown.
func (e *MarkdownExporter) Export(record *archive.Record, w io.Writer) error {
	var sb strings.Builder

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", record.Metadata.Topic))

	// Outcome
	sb.WriteString("## Outcome\n\n")
	sb.WriteString(fmt.Sprintf("- **Winner:** %s\n", record.Metadata.Winner))
	sb.WriteString(fmt.Sprintf("- **Rounds:** %d\n", record.Metadata.TotalRounds))
	for _, snap := range record.Configuration {
		if snap.Role != "debater" {
			continue
		}
		sb.WriteString(fmt.Sprintf("- **%s:** %d round(s) won\n", snap.Name, record.Metadata.FinalScores[snap.Name]))
	}
	sb.WriteString("\n")

	// Participants
	sb.WriteString("## Participants\n\n")
	for _, snap := range record.Configuration {
		sb.WriteString(fmt.Sprintf("### %s\n", snap.Name))
		sb.WriteString(fmt.Sprintf("- **Role:** %s\n", snap.Role))
		if snap.Persona != "" {
			sb.WriteString(fmt.Sprintf("- **Persona:** %s\n", snap.Persona))
		}
		sb.WriteString("\n")
	}

	// Transcript
	sb.WriteString("## Transcript\n\n")

	if len(record.Transcript) == 0 {
		sb.WriteString("*No messages recorded.*\n\n")
	} else {
		currentRound := 0
		for _, msg := range record.Transcript {
			if msg.Round != currentRound {
				currentRound = msg.Round
				sb.WriteString(fmt.Sprintf("### Round %d\n\n", currentRound))
			}
			sb.WriteString(fmt.Sprintf("#### %s\n\n", msg.Agent))
			sb.WriteString(fmt.Sprintf("*%s*\n\n", msg.Timestamp.Format("January 2, 2006 at 3:04 PM")))
			sb.WriteString(msg.Content)
			sb.WriteString("\n\n---\n\n")
		}
	}

	// Footer
	sb.WriteString("*Exported from rostrum*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
