// Package formats provides codecs for the export artifacts: the intermediate
// JSON snapshot, the staged binary record, the final device catalogue and
// the plain project file.
package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrSparseIndex is returned when a string-keyed JSON object does not hold
// exactly the keys "0" through "n-1".
var ErrSparseIndex = errors.New("index keys are not dense")

// Indexed is a dense sequence encoded as a JSON object keyed by the decimal
// position of each element ({"0": ..., "1": ...}). Keys are written in
// numeric order.
type Indexed[T any] []T

// MarshalJSON writes the elements as an object in position order.
func (s Indexed[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(i)))
		buf.WriteByte(':')
		b, err := marshalRaw(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw encodes v without HTML escaping. Output of a Marshaler is
// copied verbatim by the outer encoder, so nested values must already match
// the writer's escaping.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON reads an object keyed "0".."n-1" in any key order.
func (s *Indexed[T]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make([]T, len(raw))
	for k, msg := range raw {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(raw) || strconv.Itoa(i) != k {
			return fmt.Errorf("%w: unexpected key %q among %d entries", ErrSparseIndex, k, len(raw))
		}
		if err := json.Unmarshal(msg, &out[i]); err != nil {
			return fmt.Errorf("entry %q: %w", k, err)
		}
	}
	*s = out
	return nil
}
