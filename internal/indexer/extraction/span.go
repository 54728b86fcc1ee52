package extraction

import (
	"bytes"
	"strconv"
)

// Line is a 1-based source line number. Zero means unknown and encodes as JSON null.
type Line int

// Known reports whether the line number was resolved.
func (l Line) Known() bool {
	return l > 0
}

func (l Line) MarshalJSON() ([]byte, error) {
	if l <= 0 {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(l), 10), nil
}

func (l *Line) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*l = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*l = Line(n)
	return nil
}

// Span is an inclusive line range.
type Span struct {
	StartLine Line `json:"start_line"`
	EndLine   Line `json:"end_line"`
}
