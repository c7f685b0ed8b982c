package features

import "fmt"

// Matrix holds one feature vector per image, in insertion order.
// All rows share the same length.
type Matrix struct {
	dim  int
	ids  []string
	rows []Vector
	pos  map[string]int
}

// NewMatrix returns an empty matrix whose rows must have length dim.
func NewMatrix(dim int) *Matrix {
	return &Matrix{dim: dim, pos: make(map[string]int)}
}

// Append adds a row for id.
func (m *Matrix) Append(id string, v Vector) error {
	if len(v) != m.dim {
		return fmt.Errorf("%w: %s has %d components, want %d", ErrRowLength, id, len(v), m.dim)
	}
	if _, ok := m.pos[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	m.pos[id] = len(m.rows)
	m.ids = append(m.ids, id)
	m.rows = append(m.rows, v)
	return nil
}

func (m *Matrix) Len() int { return len(m.rows) }

func (m *Matrix) Dim() int { return m.dim }

// ID returns the identifier of row i.
func (m *Matrix) ID(i int) string { return m.ids[i] }

// Row returns row i. The caller must not modify it.
func (m *Matrix) Row(i int) Vector { return m.rows[i] }

// Lookup returns the row stored for id.
func (m *Matrix) Lookup(id string) (Vector, bool) {
	i, ok := m.pos[id]
	if !ok {
		return nil, false
	}
	return m.rows[i], true
}

// IDs returns a copy of the identifiers in row order.
func (m *Matrix) IDs() []string {
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}
