// Package codec renders observed topology snapshots in exchange formats.
package codec

import (
	"io"
	"sort"

	"sdnview/internal/domain"
)

// Exporter writes a snapshot in one format
type Exporter interface {
	Export(snap *domain.Snapshot, w io.Writer) error
	Format() string
	ContentType() string
}

// Registry maps format identifiers to exporters
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry returns a registry holding every built-in exporter
func NewRegistry() *Registry {
	r := &Registry{exporters: make(map[string]Exporter)}
	r.Register(NewJSONCodec())
	r.Register(NewJGFCodec())
	r.Register(NewYAMLCodec())
	return r
}

// Register adds or replaces an exporter under its format
func (r *Registry) Register(e Exporter) {
	r.exporters[e.Format()] = e
}

// Lookup returns the exporter for a format
func (r *Registry) Lookup(format string) (Exporter, bool) {
	e, ok := r.exporters[format]
	return e, ok
}

// Formats lists registered format identifiers in order
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.exporters))
	for f := range r.exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
