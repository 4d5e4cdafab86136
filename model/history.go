package model

const historySize = 5

// History stores recent grid hashes for cycle detection
type History struct {
	hashes []string
}

// Record adds the grid's current state and keeps only the most recent entries
func (h *History) Record(g *Grid) {
	h.hashes = append(h.hashes, g.Hash())

	if len(h.hashes) > historySize {
		h.hashes = h.hashes[1:]
	}
}

// Reset forgets every recorded state
func (h *History) Reset() {
	h.hashes = nil
}

// IsStagnant reports whether the grid repeats one of the last three recorded
// states, which covers still lifes and oscillators of period 1 to 3
func (h *History) IsStagnant(g *Grid) bool {
	if len(h.hashes) < 3 {
		return false
	}

	current := g.Hash()
	for _, prev := range h.hashes[len(h.hashes)-3:] {
		if prev == current {
			return true
		}
	}
	return false
}
