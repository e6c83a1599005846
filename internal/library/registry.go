package library

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Registry selects a vendor by the highlights file extension.
type Registry struct {
	descriptors map[string]Descriptor
}

func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(d Descriptor) error {
	format := normalizeFormat(d.Format)
	if format == "" {
		return fmt.Errorf("register %s: empty format", d.Vendor)
	}
	if d.Open == nil {
		return fmt.Errorf("register %s: nil open function", d.Vendor)
	}
	if existing, ok := r.descriptors[format]; ok {
		return fmt.Errorf("register %s: format %q already handled by %s", d.Vendor, format, existing.Vendor)
	}
	d.Format = format
	r.descriptors[format] = d
	return nil
}

// Formats returns the registered format tags, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.descriptors))
	for format := range r.descriptors {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// Descriptors returns the registered vendors ordered by format tag.
func (r *Registry) Descriptors() []Descriptor {
	formats := r.Formats()
	result := make([]Descriptor, 0, len(formats))
	for _, format := range formats {
		result = append(result, r.descriptors[format])
	}
	return result
}

func (r *Registry) Lookup(format string) (Descriptor, error) {
	d, ok := r.descriptors[normalizeFormat(format)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	return d, nil
}

// Open parses raw with the vendor matching the extension of filename.
func (r *Registry) Open(filename string, raw []byte, opts OpenOptions) (Library, error) {
	d, err := r.Lookup(FormatFromFilename(filename))
	if err != nil {
		return nil, err
	}
	return d.Open(raw, opts)
}

// FormatFromFilename returns the lower-cased last extension of name,
// without the dot.
func FormatFromFilename(name string) string {
	return normalizeFormat(filepath.Ext(name))
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}
