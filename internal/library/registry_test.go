package library

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/erratas/internal/entities"
)

type stubLibrary struct {
	*Collection
	raw []byte
}

func (s *stubLibrary) Format() string {
	return "stub"
}

func (s *stubLibrary) Vendor() string {
	return "Stub"
}

func (s *stubLibrary) Export() ([]byte, error) {
	return s.raw, nil
}

func (s *stubLibrary) Close() error {
	return nil
}

func (s *stubLibrary) PersistDeletion(*entities.Book, []*entities.Erratum) error {
	return nil
}

func stubDescriptor(format string) Descriptor {
	return Descriptor{
		Format:     format,
		Vendor:     "Stub " + format,
		UploadHelp: "help",
		Open: func(raw []byte, opts OpenOptions) (Library, error) {
			lib := &stubLibrary{raw: raw}
			lib.Collection = NewCollection(lib)
			return lib, nil
		},
	}
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"KoboReader.sqlite", "sqlite"},
		{"backup.KoboReader.SQLITE", "sqlite"},
		{"/tmp/some dir/notes.txt", "txt"},
		{"sqlite", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFromFilename(tt.name))
		})
	}
}

func TestRegistry(t *testing.T) {
	registry, err := NewRegistry(stubDescriptor("sqlite"), stubDescriptor(".TXT"))
	require.NoError(t, err)

	assert.Equal(t, []string{"sqlite", "txt"}, registry.Formats())

	descriptors := registry.Descriptors()
	require.Len(t, descriptors, 2)
	assert.Equal(t, "Stub sqlite", descriptors[0].Vendor)
	assert.Equal(t, "txt", descriptors[1].Format)

	t.Run("dispatches by extension", func(t *testing.T) {
		lib, err := registry.Open("KoboReader.sqlite", []byte("raw"), OpenOptions{})
		require.NoError(t, err)

		exported, err := lib.Export()
		require.NoError(t, err)
		assert.Equal(t, []byte("raw"), exported)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := registry.Open("notes.epub", nil, OpenOptions{})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		err := registry.Register(stubDescriptor("SQLITE"))
		assert.Error(t, err)
	})

	t.Run("rejects incomplete descriptors", func(t *testing.T) {
		assert.Error(t, registry.Register(Descriptor{Vendor: "empty", Open: stubDescriptor("x").Open}))
		assert.Error(t, registry.Register(Descriptor{Format: "epub", Vendor: "noop"}))
	})
}

func TestParseError(t *testing.T) {
	cause := errors.New("file is not a database")
	var err error = &ParseError{Format: "sqlite", Err: cause}

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "sqlite", parseErr.Format)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "parse sqlite highlights: file is not a database", err.Error())
}
