package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/erratas/internal/kobo"
	"github.com/mrlokans/erratas/internal/kobo/kobotest"
	"github.com/mrlokans/erratas/internal/library"
)

func sampleFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "KoboReader.sqlite")
	require.NoError(t, os.WriteFile(path, kobotest.Sample(t), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("WORKSPACE_DIR", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBooksCommand(t *testing.T) {
	out, _, err := runCLI(t, "books", sampleFile(t))
	require.NoError(t, err)

	assert.Contains(t, out, "El Quijote")
	assert.Contains(t, out, "Miguel de Cervantes")
	assert.Contains(t, out, "Lazarillo de Tormes")
	assert.Contains(t, out, kobotest.LazarilloID)
}

func TestBooksCommand_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	_, _, err := runCLI(t, "books", path)
	assert.ErrorIs(t, err, library.ErrUnsupportedFormat)
}

func TestErrataCommand(t *testing.T) {
	out, _, err := runCLI(t, "errata", sampleFile(t), "--book", kobotest.QuijoteID, "--sort", "section")
	require.NoError(t, err)

	assert.Contains(t, out, "El Quijote (Miguel de Cervantes)")
	assert.Contains(t, out, "bm-1")
	assert.Contains(t, out, "bm-2")
	assert.Contains(t, out, "cap1.xhtml")
	assert.NotContains(t, out, "bm-3")
}

func TestErrataCommand_Errors(t *testing.T) {
	path := sampleFile(t)

	_, _, err := runCLI(t, "errata", path, "--book", kobotest.QuijoteID, "--sort", "color")
	assert.Error(t, err)

	_, _, err = runCLI(t, "errata", path, "--book", "missing")
	assert.ErrorIs(t, err, library.ErrNotFound)

	_, _, err = runCLI(t, "errata", path)
	assert.Error(t, err, "--book is required")
}

func TestReportCommand(t *testing.T) {
	out, stderr, err := runCLI(t, "report", sampleFile(t),
		"--book", kobotest.QuijoteID, "--ids", "bm-1,bm-3")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "$$ Informe de erratas generado para ePLMulti (plugin de Sigil).\n$$ Nombre: El Quijote\n"))
	assert.True(t, strings.HasSuffix(out, "## 0 || cap1.xhtml\n<< En un lugar de la Mancah\n>> En un lugar de la Mancha\n"))
	assert.NotContains(t, out, "Pues sepa")
	assert.Contains(t, stderr, "bm-3", "skipped ids are reported as warnings")
}

func TestReportCommand_ToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "quijote.errata.txt")

	out, _, err := runCLI(t, "report", sampleFile(t), "--book", kobotest.LazarilloID, "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## 0 || lazarillo-ch1\n<< Pues sepa vuestra merced\n>> Pues sepa Vuestra Merced\n")
}

func TestReportCommand_NoCorrections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "KoboReader.sqlite")
	raw := kobotest.Build(t,
		[]kobotest.Content{{ContentID: "c1", BookID: "b1", BookTitle: "Vacío"}},
		[]kobotest.Bookmark{{BookmarkID: "bm-1", ContentID: "c1", DateCreated: "2023-01-01T00:00:00.0"}},
	)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, _, err := runCLI(t, "report", path, "--book", "b1")
	assert.Error(t, err)
}

func TestDeleteCommand(t *testing.T) {
	input := sampleFile(t)
	original, err := os.ReadFile(input)
	require.NoError(t, err)
	dest := filepath.Join(t.TempDir(), "KoboReader.sqlite")

	out, _, err := runCLI(t, "delete", input, "--book", kobotest.QuijoteID, "--ids", "bm-2", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 errata from El Quijote, 1 remaining")

	after, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, original, after, "the input file is never modified")

	exported, err := os.ReadFile(dest)
	require.NoError(t, err)
	lib, err := kobo.Open(exported, library.OpenOptions{TempDir: t.TempDir()})
	require.NoError(t, err)
	defer lib.Close()

	quijote, err := lib.Book(kobotest.QuijoteID)
	require.NoError(t, err)
	assert.Equal(t, 1, quijote.Len())
	_, err = quijote.Erratum("bm-2")
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestDeleteCommand_Errors(t *testing.T) {
	input := sampleFile(t)
	dest := filepath.Join(t.TempDir(), "out.sqlite")

	_, _, err := runCLI(t, "delete", input, "--book", kobotest.QuijoteID, "--ids", "bm-1", "--out", input)
	assert.Error(t, err, "overwriting the input is refused")

	_, _, err = runCLI(t, "delete", input, "--book", kobotest.QuijoteID, "--ids", "bm-1,bm-9", "--out", dest)
	assert.ErrorIs(t, err, library.ErrNotFound)
	assert.NoFileExists(t, dest)

	_, _, err = runCLI(t, "delete", input, "--book", kobotest.QuijoteID, "--ids", "bm-1")
	assert.Error(t, err, "--out is required")
}

func TestFormatsCommand(t *testing.T) {
	out, _, err := runCLI(t, "formats")
	require.NoError(t, err)

	assert.Contains(t, out, kobo.Vendor)
	assert.Contains(t, out, ".sqlite")
	assert.Contains(t, out, "KoboReader.sqlite")
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Count"}, [][]string{{"a", "1"}, {"b"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Count")
	assert.Contains(t, out, "a")

	assert.Empty(t, renderTable(nil, nil, nil))
}
