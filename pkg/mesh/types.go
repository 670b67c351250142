// Package mesh defines the annotated mesh data model: points, raw faces,
// materials and the user-authored areas that label groups of faces.
package mesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	m "github.com/Faultbox/magic-maker/pkg/math"
)

// Point is a vertex position in the host's native frame.
type Point = m.Vec3

// Reserved material names.
const (
	MaterialMainBody = "mainBody"
	MaterialXZFace   = "xzFace"
	MaterialYZFace   = "yzFace"
)

// Model errors.
var (
	ErrInvalidGesture = errors.New("invalid gesture")
	ErrInvalidArea    = errors.New("invalid area")
	ErrInvalidFace    = errors.New("invalid face")
	ErrEmptySelection = errors.New("no faces selected")
	ErrFaceOutOfRange = errors.New("face index out of range")
)

// Gesture is the interaction a device should respond to on an area.
type Gesture int

const (
	GestureSelect Gesture = iota
	GesturePoint
	GestureCancel
)

// String returns the gesture name as it appears in exported files.
func (g Gesture) String() string {
	switch g {
	case GestureSelect:
		return "Select"
	case GesturePoint:
		return "Point"
	case GestureCancel:
		return "Cancel"
	default:
		return fmt.Sprintf("Unknown(%d)", int(g))
	}
}

// ParseGesture converts an exported gesture name to a Gesture. The empty
// string maps to Select, the editor's default.
func ParseGesture(s string) (Gesture, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "select":
		return GestureSelect, nil
	case "point":
		return GesturePoint, nil
	case "cancel":
		return GestureCancel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGesture, s)
	}
}

// Color is an RGBA color with components in [0,1].
type Color [4]float64

// DefaultAreaColor is the editor's initial label color.
var DefaultAreaColor = Color{0.75, 0.0, 0.8, 1.0}

// RGB returns the color without alpha.
func (c Color) RGB() [3]float64 {
	return [3]float64{c[0], c[1], c[2]}
}

// Area is a user-defined labelled region. Faces reference it through their
// material index.
type Area struct {
	Index   int    `validate:"gte=1"`
	Label   string `validate:"required"`
	Content string
	Gesture Gesture `validate:"gte=0,lte=2"`
	Color   Color   `validate:"dive,gte=0,lte=1"`
}

var validate = validator.New()

// Validate checks index, label, gesture and color ranges.
func (a Area) Validate() error {
	if err := validate.Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w %d: %s failed %q", ErrInvalidArea, a.Index, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w %d: %v", ErrInvalidArea, a.Index, err)
	}
	return nil
}

// Material is a material slot on the mesh.
type Material struct {
	Name    string
	Diffuse float64
	Color   [3]float64
}

// RawFace is a triangle as captured from the host.
type RawFace struct {
	Index     int    // position in the host mesh at capture time
	Vertices  [3]int // indices into Snapshot.Vertices
	Normal    Point
	AreaIndex int // material slot; 0 means unmarked
}

// Marked reports whether the face belongs to an area.
func (f RawFace) Marked() bool {
	return f.AreaIndex > 0
}
