package graph

// Cycle runs Kahn's algorithm over the graph and returns the node ids left
// unprocessed when a cycle exists, or nil for an acyclic graph. Nodes whose
// type appears in loopTypes are excluded from the walk: a cycle is tolerated
// when at least one participating node declares loop semantics.
func (g *Graph) Cycle(loopTypes map[string]bool) []string {
	inDegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string)
	loopNode := make(map[string]bool)

	for _, n := range g.Nodes {
		inDegree[n.ID] = 0
		if loopTypes[n.Type] {
			loopNode[n.ID] = true
		}
	}

	for key, ports := range g.Connections {
		src, _ := SplitConnectionKey(key)
		if _, ok := inDegree[src]; !ok {
			continue
		}
		for _, p := range ports {
			if _, ok := inDegree[p.NodeID]; !ok {
				continue
			}
			inDegree[p.NodeID]++
			dependents[src] = append(dependents[src], p.NodeID)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		var next []string
		for _, id := range queue {
			visited++
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited == len(g.Nodes) {
		return nil
	}

	var remaining []string
	anyLooped := false
	for id, deg := range inDegree {
		if deg > 0 {
			remaining = append(remaining, id)
			if loopNode[id] {
				anyLooped = true
			}
		}
	}
	if anyLooped {
		// A node on the cycle declares loop semantics; the cycle is legal.
		return nil
	}
	return remaining
}
