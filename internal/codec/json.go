package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"sdnview/internal/domain"
)

// JSONCodec exports the snapshot as-is
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of the output
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Export writes the snapshot as indented JSON
func (c *JSONCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
