package entities

import (
	"fmt"
	"strings"
)

// Field markers understood by the ePLMulti report importer.
const (
	ReportLineMarker       = "## "
	ReportSectionMarker    = " || "
	ReportHighlightMarker  = "\n<< "
	ReportCorrectionMarker = "\n>> "

	// EmptySectionPlaceholder is written when an erratum has no section.
	EmptySectionPlaceholder = "_"
)

// Report is a rendered errata report. Skipped lists the ids that were
// requested but are no longer owned by the book.
type Report struct {
	Text    string
	Skipped []string
}

// Report renders the errata report for the given subset, in the given
// order. An empty subset renders every owned erratum.
func (b *Book) Report(subset []*Erratum) Report {
	lines := []string{
		"$$ Informe de erratas generado para ePLMulti (plugin de Sigil).",
		"$$ Nombre: " + b.Title,
		"$$ ",
		"$$ Línea: " + ReportLineMarker,
		"$$ Sección: " + ReportSectionMarker,
		"$$ Resalte: " + ReportHighlightMarker,
		"$$ Nota: " + ReportCorrectionMarker,
		"$$ Final: ",
		"$$ \n",
	}

	if len(subset) == 0 {
		subset = b.Errata()
	}

	var skipped []string
	for _, e := range subset {
		if e == nil {
			continue
		}
		if !b.Contains(e) {
			skipped = append(skipped, e.ID)
			continue
		}
		lines = append(lines, reportEntry(e))
	}

	return Report{
		Text:    strings.Join(lines, "\n"),
		Skipped: skipped,
	}
}

func reportEntry(e *Erratum) string {
	section := e.Section
	if section == "" {
		section = EmptySectionPlaceholder
	}
	return fmt.Sprintf("%s%d%s%s%s%s%s%s\n",
		ReportLineMarker, max(0, e.Position),
		ReportSectionMarker, section,
		ReportHighlightMarker, e.Highlight,
		ReportCorrectionMarker, e.Correction,
	)
}
