package hierarchy

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Node is one entry of a flat parent-pointer list (a role, a geo level).
// A valid hierarchy is a single chain: exactly one node without a parent,
// every other node reachable from it, and no node with more than one child.
type Node struct {
	ID       uuid.UUID
	Name     string
	ParentID *uuid.UUID
}

// Validate checks that nodes form a single chain and returns it ordered
// root→leaf. On failure it returns the problems found instead; the two
// results are mutually exclusive. Checks run in phases (duplicates, then
// root count, then the chain walk) and every problem within a phase is
// reported before the next phase runs.
func Validate(nodes []Node) ([]Node, []string) {
	if len(nodes) == 0 {
		return nil, []string{"hierarchy has no nodes"}
	}

	if errs := duplicateErrors(nodes); len(errs) > 0 {
		return nil, errs
	}

	var roots []Node
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
		}
	}
	if len(roots) == 0 {
		return nil, []string{"hierarchy has no top level node (every node has a parent)"}
	}
	if len(roots) > 1 {
		names := make([]string, 0, len(roots))
		for _, r := range roots {
			names = append(names, r.Name)
		}
		sort.Strings(names)
		return nil, []string{fmt.Sprintf("hierarchy has multiple top level nodes: %v", names)}
	}

	return walkChain(nodes, roots[0])
}

func duplicateErrors(nodes []Node) []string {
	idCount := make(map[uuid.UUID]int, len(nodes))
	nameCount := make(map[string]int, len(nodes))
	for _, n := range nodes {
		idCount[n.ID]++
		nameCount[n.Name]++
	}

	var errs []string
	for _, n := range nodes {
		if c := idCount[n.ID]; c > 1 {
			errs = append(errs, fmt.Sprintf("node id %s appears %d times", n.ID, c))
			idCount[n.ID] = 0 // report once
		}
	}
	for _, n := range nodes {
		if c := nameCount[n.Name]; c > 1 {
			errs = append(errs, fmt.Sprintf("node name %q appears %d times", n.Name, c))
			nameCount[n.Name] = 0
		}
	}
	return errs
}

// walkChain follows the "children of current" relation from the root. The
// loop is bounded by len(nodes) so malformed input cannot spin forever.
func walkChain(nodes []Node, root Node) ([]Node, []string) {
	children := make(map[uuid.UUID][]Node, len(nodes))
	byID := make(map[uuid.UUID]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}
	}

	ordered := []Node{root}
	visited := map[uuid.UUID]bool{root.ID: true}
	var errs []string

	current := root
	for i := 0; i < len(nodes); i++ {
		kids := children[current.ID]
		if len(kids) == 0 {
			break
		}
		if len(kids) > 1 {
			names := make([]string, 0, len(kids))
			for _, k := range kids {
				names = append(names, k.Name)
			}
			sort.Strings(names)
			errs = append(errs, fmt.Sprintf("node %q has more than one child: %v", current.Name, names))
			break
		}
		next := kids[0]
		if visited[next.ID] {
			errs = append(errs, fmt.Sprintf("hierarchy has a cycle: node %q repeats", next.Name))
			break
		}
		visited[next.ID] = true
		ordered = append(ordered, next)
		current = next
	}

	if len(visited) < len(nodes) {
		var unreached []string
		inReportedCycle := make(map[uuid.UUID]bool)
		for _, n := range nodes {
			if visited[n.ID] {
				continue
			}
			unreached = append(unreached, n.Name)
			switch {
			case n.ParentID != nil && *n.ParentID == n.ID:
				errs = append(errs, fmt.Sprintf("node %q is its own parent", n.Name))
			case n.ParentID != nil:
				if _, ok := byID[*n.ParentID]; !ok {
					errs = append(errs, fmt.Sprintf("node %q references a parent that does not exist", n.Name))
				} else if members := parentCycle(byID, n, len(nodes)); len(members) > 0 {
					already := false
					for _, id := range members {
						if inReportedCycle[id] {
							already = true
							break
						}
					}
					if !already {
						errs = append(errs, fmt.Sprintf("hierarchy has a cycle: node %q repeats", byID[members[0]].Name))
						for _, id := range members {
							inReportedCycle[id] = true
						}
					}
				}
			}
		}
		sort.Strings(unreached)
		errs = append(errs, fmt.Sprintf("nodes not reachable from the top level: %v", unreached))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return ordered, nil
}

// parentCycle walks upward from start and returns the member ids of the
// cycle it lands in, if any. Self-references and dangling parents are
// reported separately and yield nil here. Bounded by limit steps.
func parentCycle(byID map[uuid.UUID]Node, start Node, limit int) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	cur := start
	for i := 0; i <= limit; i++ {
		if seen[cur.ID] {
			// cur is on the cycle; collect its members
			members := []uuid.UUID{cur.ID}
			next := byID[*cur.ParentID]
			for next.ID != cur.ID {
				members = append(members, next.ID)
				next = byID[*next.ParentID]
			}
			return members
		}
		seen[cur.ID] = true
		if cur.ParentID == nil || *cur.ParentID == cur.ID {
			return nil
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			return nil
		}
		cur = parent
	}
	return nil
}
