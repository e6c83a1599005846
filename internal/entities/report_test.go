package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const expectedHeader = "$$ Informe de erratas generado para ePLMulti (plugin de Sigil).\n" +
	"$$ Nombre: El Quijote\n" +
	"$$ \n" +
	"$$ Línea: ## \n" +
	"$$ Sección:  || \n" +
	"$$ Resalte: \n<< \n" +
	"$$ Nota: \n>> \n" +
	"$$ Final: \n" +
	"$$ \n"

func TestBook_Report(t *testing.T) {
	e1 := NewErratum("1", "En un lugar de la Mancah", "En un lugar de la Mancha", testDate, WithSection("cap1.xhtml"))
	e2 := NewErratum("2", "no quiero acordarme", "", testDate, WithPosition(12))
	book := NewBook("b1", "El Quijote", "Cervantes", e1, e2)

	t.Run("renders all errata by default", func(t *testing.T) {
		report := book.Report(nil)

		expected := expectedHeader +
			"\n## 0 || cap1.xhtml\n<< En un lugar de la Mancah\n>> En un lugar de la Mancha\n" +
			"\n## 12 || _\n<< no quiero acordarme\n>> no quiero acordarme\n"
		assert.Equal(t, expected, report.Text)
		assert.Empty(t, report.Skipped)
	})

	t.Run("keeps the caller order", func(t *testing.T) {
		report := book.Report([]*Erratum{e2, e1})

		expected := expectedHeader +
			"\n## 12 || _\n<< no quiero acordarme\n>> no quiero acordarme\n" +
			"\n## 0 || cap1.xhtml\n<< En un lugar de la Mancah\n>> En un lugar de la Mancha\n"
		assert.Equal(t, expected, report.Text)
	})

	t.Run("is deterministic", func(t *testing.T) {
		subset := []*Erratum{e1, e2}
		assert.Equal(t, book.Report(subset).Text, book.Report(subset).Text)
	})

	t.Run("skips errata the book no longer owns", func(t *testing.T) {
		ghost := NewErratum("ghost", "gone", "", testDate)
		report := book.Report([]*Erratum{e1, ghost})

		expected := expectedHeader +
			"\n## 0 || cap1.xhtml\n<< En un lugar de la Mancah\n>> En un lugar de la Mancha\n"
		assert.Equal(t, expected, report.Text)
		assert.Equal(t, []string{"ghost"}, report.Skipped)
		assert.NotContains(t, report.Text, "gone")
	})

	t.Run("empty book renders only the header", func(t *testing.T) {
		empty := NewBook("b2", "El Quijote", "")
		assert.Equal(t, expectedHeader, empty.Report(nil).Text)
	})
}
