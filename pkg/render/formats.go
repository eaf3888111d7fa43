package render

import (
	"slices"
	"strings"

	"github.com/matzehuels/vesselflow/pkg/errors"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists every supported format in display order.
var Formats = []string{FormatSVG, FormatPNG, FormatDOT, FormatJSON}

// ContentType returns the MIME type served for a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz"
	}
}

// ValidateFormats checks every format and returns them lower-cased.
func ValidateFormats(formats []string) ([]string, error) {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(Formats, f) {
			return nil, errors.New(errors.ErrCodeUnsupported,
				"invalid format %q (must be one of: %s)", f, strings.Join(Formats, ", "))
		}
		out = append(out, f)
	}
	return out, nil
}
