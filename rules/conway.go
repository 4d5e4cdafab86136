package rules

/*
ApplyConwayRules reports whether a cell is alive in the next generation.

A live cell survives with 2 or 3 live neighbors; a dead cell is born with exactly 3.
Every other cell is dead in the next generation.
*/
func ApplyConwayRules(neighbors int, alive bool) bool {
	switch neighbors {
	case 3:
		return true
	case 2:
		return alive
	default:
		return false
	}
}
