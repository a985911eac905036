package world

import (
	"github.com/zyedidia/generic/mapset"
)

// The searches below are breadth-first over the directed exit graph. Neighbors
// are expanded in exit declaration order, so ties between equal-length paths go
// to the exit declared first. An exit target missing from the graph is marked
// seen like any other room but expands to nothing.

// ShortestPath returns the fewest-steps path from start to goal, inclusive of both ends.
//
// Postcondition: Returns ([start], true) when start == goal without searching;
// (path, true) when goal is reachable; (nil, false) otherwise.
func ShortestPath(g Graph, start, goal string) ([]string, bool) {
	if start == goal {
		return []string{start}, true
	}
	prev := map[string]string{}
	seen := mapset.New[string]()
	seen.Put(start)
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		room, ok := g[node]
		if !ok {
			continue
		}
		for _, x := range room.Exits {
			next := x.TargetRoom
			if seen.Has(next) {
				continue
			}
			seen.Put(next)
			prev[next] = node
			if next == goal {
				return buildPath(prev, start, goal), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// NearestWithItem finds the closest rooms holding an item not in excluded.
// The search runs level by level; the first level containing any qualifying
// room ends it, and one path is returned per qualifying room on that level in
// discovery order. The start room itself is level zero.
//
// Postcondition: Returns a possibly empty slice of start→target paths; never nil.
func NearestWithItem(g Graph, start string, excluded mapset.Set[string]) [][]string {
	prev := map[string]string{}
	seen := mapset.New[string]()
	seen.Put(start)
	level := []string{start}
	for len(level) > 0 {
		var found []string
		var next []string
		for _, node := range level {
			room, ok := g[node]
			if !ok {
				continue
			}
			if room.HasItem() && !excluded.Has(string(room.Item)) {
				found = append(found, node)
			}
			for _, x := range room.Exits {
				if seen.Has(x.TargetRoom) {
					continue
				}
				seen.Put(x.TargetRoom)
				prev[x.TargetRoom] = node
				next = append(next, x.TargetRoom)
			}
		}
		if len(found) > 0 {
			paths := make([][]string, 0, len(found))
			for _, target := range found {
				paths = append(paths, buildPath(prev, start, target))
			}
			return paths
		}
		level = next
	}
	return [][]string{}
}

// Reachable returns every room reachable from start, start included, in discovery order.
func Reachable(g Graph, start string) []string {
	seen := mapset.New[string]()
	seen.Put(start)
	queue := []string{start}
	var out []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		out = append(out, node)
		room, ok := g[node]
		if !ok {
			continue
		}
		for _, x := range room.Exits {
			if !seen.Has(x.TargetRoom) {
				seen.Put(x.TargetRoom)
				queue = append(queue, x.TargetRoom)
			}
		}
	}
	return out
}

// ImmediateNeighbors returns the exit targets of start in declaration order.
// Two directions leading to the same room yield that room twice.
func ImmediateNeighbors(g Graph, start string) []string {
	room, ok := g[start]
	if !ok {
		return []string{}
	}
	return room.Exits.Targets()
}

// ReachableWithin returns the rooms between 1 and maxDepth steps from start.
// Start is never included, even when a cycle leads back to it.
//
// Postcondition: Returns an empty set when maxDepth <= 0.
func ReachableWithin(g Graph, start string, maxDepth int) mapset.Set[string] {
	result := mapset.New[string]()
	if maxDepth <= 0 {
		return result
	}
	seen := mapset.New[string]()
	seen.Put(start)
	frontier := []string{start}
	for depth := 0; len(frontier) > 0 && depth < maxDepth; depth++ {
		var next []string
		for _, node := range frontier {
			room, ok := g[node]
			if !ok {
				continue
			}
			for _, x := range room.Exits {
				if seen.Has(x.TargetRoom) {
					continue
				}
				seen.Put(x.TargetRoom)
				result.Put(x.TargetRoom)
				next = append(next, x.TargetRoom)
			}
		}
		frontier = next
	}
	return result
}

// buildPath walks predecessor links back from goal to start.
func buildPath(prev map[string]string, start, goal string) []string {
	path := []string{goal}
	for cur := goal; cur != start; {
		cur = prev[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
