package heading

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// ErrLevelOutOfRange is returned when a shifted level would leave 1..6.
var ErrLevelOutOfRange = errors.New("heading level out of range")

// Shift moves h by n levels: positive n demotes (H1 -> H3 for n=2), negative
// n promotes. The heading is returned unchanged together with
// ErrLevelOutOfRange when the result would not be a valid ATX level.
func Shift(h models.Heading, n int) (models.Heading, error) {
	level := h.Level + n
	if level < MinLevel || level > MaxLevel {
		return h, fmt.Errorf("shifting %q from H%d by %d: %w", h.Text, h.Level, n, ErrLevelOutOfRange)
	}
	h.Level = level
	return h, nil
}

// ShiftAll shifts every heading by n. It fails without partial results if any
// heading would fall outside 1..6.
func ShiftAll(heads []models.Heading, n int) ([]models.Heading, error) {
	out := make([]models.Heading, len(heads))
	for i := range heads {
		h, err := Shift(heads[i], n)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

// Clamp limits level to 1..6.
func Clamp(level int) int {
	switch {
	case level < MinLevel:
		return MinLevel
	case level > MaxLevel:
		return MaxLevel
	}
	return level
}
