package internal

// ReconstructPath walks parent links from current back to the first node for
// which keep reports false (or that has no parent) and returns the kept nodes
// ordered from the oldest ancestor to current.
func ReconstructPath[NodeType comparable](
	current NodeType,
	parentOf func(NodeType) (NodeType, bool),
	keep func(NodeType) bool,
) []NodeType {
	if !keep(current) {
		return nil
	}
	path := []NodeType{current}
	for {
		previousNode, exists := parentOf(current)
		if !exists || !keep(previousNode) {
			break
		}
		path = append(path, previousNode)
		current = previousNode
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}
