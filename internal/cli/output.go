package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an output format other than json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// Printer renders command results.
type Printer struct {
	w      io.Writer
	format string
}

// NewPrinter creates a Printer writing format to w.
func NewPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case FormatJSON, FormatYAML:
	case "":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return &Printer{w: w, format: format}, nil
}

// Print renders v. YAML output goes through the JSON encoding first so that the
// json tags and custom marshalers of the domain types apply to both formats.
func (p *Printer) Print(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if p.format == FormatJSON {
		_, err := fmt.Fprintf(p.w, "%s\n", encoded)

		return err //nolint:wrapcheck
	}

	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}

	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)

	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close() //nolint:wrapcheck
}

// Message writes a line of plain text.
func (p *Printer) Message(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
