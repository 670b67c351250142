package formats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// XYZ is a point or direction in the final catalogue.
type XYZ struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RGB is a face color in the final catalogue.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Verts holds the three vertices of a catalogued face.
type Verts struct {
	Vert1 XYZ `json:"vert1"`
	Vert2 XYZ `json:"vert2"`
	Vert3 XYZ `json:"vert3"`
}

// FaceColor is a face color, encoded as the string "null" for unmarked
// faces.
type FaceColor struct {
	RGB   RGB
	Valid bool
}

// MarshalJSON writes {r,g,b} or "null".
func (c FaceColor) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte(`"null"`), nil
	}
	return json.Marshal(c.RGB)
}

// UnmarshalJSON accepts {r,g,b} or the "null" string.
func (c *FaceColor) UnmarshalJSON(data []byte) error {
	if string(data) == `"null"` || string(data) == "null" {
		*c = FaceColor{}
		return nil
	}
	c.Valid = true
	return json.Unmarshal(data, &c.RGB)
}

// CatalogueFace is one device-facing face record.
type CatalogueFace struct {
	Marked    bool         `json:"marked"`
	Index     int          `json:"index"`
	Color     FaceColor    `json:"color"`
	Label     string       `json:"label"`
	Content   string       `json:"content"`
	Normal    XYZ          `json:"normal"`
	Verts     Verts        `json:"verts"`
	NearFaces Indexed[int] `json:"nearFaces"`
}

// CatalogueFaces is encoded as an object keyed "face0".."faceN-1" in
// catalogue order.
type CatalogueFaces []CatalogueFace

const faceKeyPrefix = "face"

// MarshalJSON writes the faces in catalogue order.
func (fs CatalogueFaces) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(faceKeyPrefix + strconv.Itoa(i)))
		buf.WriteByte(':')
		b, err := marshalRaw(f)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads faces keyed "face<N>" back into order.
func (fs *CatalogueFaces) UnmarshalJSON(data []byte) error {
	var raw map[string]CatalogueFace
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(CatalogueFaces, len(raw))
	for k, f := range raw {
		i, err := strconv.Atoi(k[min(len(faceKeyPrefix), len(k)):])
		if err != nil || k != faceKeyPrefix+strconv.Itoa(i) || i < 0 || i >= len(raw) {
			return fmt.Errorf("%w: unexpected face key %q", ErrSparseIndex, k)
		}
		out[i] = f
	}
	*fs = out
	return nil
}

// Catalogue is the final device-ready artifact.
type Catalogue struct {
	ModelName  string         `json:"modelName"`
	ModelIntro string         `json:"modelIntro"`
	Faces      CatalogueFaces `json:"faces"`
}

// WriteCatalogue encodes the catalogue as indented JSON. The output depends
// only on the catalogue contents, so equal catalogues encode to identical
// bytes.
func WriteCatalogue(w io.Writer, c *Catalogue) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding catalogue: %w", err)
	}
	return nil
}

// ReadCatalogue decodes a final catalogue.
func ReadCatalogue(r io.Reader) (*Catalogue, error) {
	var c Catalogue
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding catalogue: %w", err)
	}
	return &c, nil
}
