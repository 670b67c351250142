// Package catalogue turns an annotated mesh snapshot into the flat,
// calibrated face catalogue consumed by devices.
//
// Building happens in two steps that mirror the export artifacts: Stage
// partitions faces into marked and unmarked groups and records the
// face/point maps in host coordinates, then Build applies a calibration
// frame, assigns catalogue positions and resolves neighbours.
package catalogue

import "strings"

// Default label normalisation values.
const (
	DefaultNoLabel            = "no label"
	DefaultPlaceholderContent = "This face has no content."
)

// DefaultAliases canonicalises legacy label strings to short codes.
func DefaultAliases() map[string]string {
	return map[string]string{
		"Body":       "body",
		"Jet engine": "engine",
		"Cockpit":    "cockpit",
	}
}

// Labels normalises area labels for export.
type Labels struct {
	Aliases     map[string]string
	NoLabel     string
	Placeholder string
}

// DefaultLabels returns the stock alias table and unmarked sentinels.
func DefaultLabels() Labels {
	return Labels{
		Aliases:     DefaultAliases(),
		NoLabel:     DefaultNoLabel,
		Placeholder: DefaultPlaceholderContent,
	}
}

// Canonical returns the short code for a legacy label, or the label itself
// with surrounding whitespace removed.
func (l Labels) Canonical(label string) string {
	label = strings.TrimSpace(label)
	if code, ok := l.Aliases[label]; ok {
		return code
	}
	return label
}

// Unmarked returns the label and content written for faces outside any
// area.
func (l Labels) Unmarked() (label, content string) {
	label, content = l.NoLabel, l.Placeholder
	if label == "" {
		label = DefaultNoLabel
	}
	if content == "" {
		content = DefaultPlaceholderContent
	}
	return label, content
}
