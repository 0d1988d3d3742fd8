// Package export renders archived debates into shareable formats.
package export

import (
	"fmt"
	"io"

	"github.com/alienxp03/rostrum/internal/archive"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// Exporter defines the interface for rendering an archived debate.
type Exporter interface {
	Export(record *archive.Record, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export from the archive
// slug and the exporter's extension.
func GenerateFilename(record *archive.Record, ext string) string {
	return fmt.Sprintf("debate_%s.%s", archive.Slug(record.Metadata.Topic), ext)
}
