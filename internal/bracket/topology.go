package bracket

// parents maps every node to the node its winner advances into.
var parents = [Nodes]int{
	// Round of sixteen
	8, 8, 9, 9, 10, 10, 11, 11,
	// Quarterfinals
	12, 12, 13, 13,
	// Semifinals
	14, 14,
	// Final
	-1,
}

// Parent returns the node the winner of id advances into. ok is false for
// the final and for ids outside the tree.
func Parent(id int) (parent int, ok bool) {
	if id < 0 || id >= Nodes || parents[id] < 0 {
		return 0, false
	}
	return parents[id], true
}

// FillsLeft reports whether the winner of id takes the parent's left slot.
func FillsLeft(id int) bool { return id%2 == 0 }

// Round returns 1 for the round of sixteen through 4 for the final, or 0
// for an id outside the tree.
func Round(id int) int {
	switch {
	case id < 0 || id >= Nodes:
		return 0
	case id < 8:
		return 1
	case id < 12:
		return 2
	case id < 14:
		return 3
	default:
		return 4
	}
}
