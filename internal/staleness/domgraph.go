package staleness

import (
	"slices"

	"github.com/roach88/staleness/internal/sourcemap"
)

// DOMGraph tracks the document tree below declared roots as parent->children
// adjacency.
//
// Membership is evidence of liveness: every node added below a member is
// made live in the lifetime table. Detaching a subtree stamps a use on every
// node in it but does not make anything unreachable; only the reachability
// analysis decides that.
type DOMGraph struct {
	global   ObjectID
	lifetime *LifetimeTable
	usage    *LastUseTable
	children map[ObjectID]map[ObjectID]struct{}
}

// NewDOMGraph creates an empty graph.
func NewDOMGraph(global ObjectID, lifetime *LifetimeTable, usage *LastUseTable) *DOMGraph {
	return &DOMGraph{
		global:   global,
		lifetime: lifetime,
		usage:    usage,
		children: make(map[ObjectID]map[ObjectID]struct{}),
	}
}

// DeclareRoot registers id as a member. Re-declaring a member keeps its
// children.
func (g *DOMGraph) DeclareRoot(id ObjectID) {
	if id == g.global {
		return
	}
	if _, ok := g.children[id]; !ok {
		g.children[id] = make(map[ObjectID]struct{})
	}
}

// AddChild records parent->child when parent is a member; otherwise the
// parent is outside the tracked tree and nothing happens.
//
// The child becomes a member and is made live, synthesizing a DOM record if
// the instrumentation never created it.
func (g *DOMGraph) AddChild(parent, child ObjectID, time int64) {
	set, ok := g.children[parent]
	if !ok || child == g.global {
		return
	}
	set[child] = struct{}{}
	if _, ok := g.children[child]; !ok {
		g.children[child] = make(map[ObjectID]struct{})
	}
	g.lifetime.EnsureLive(child)
}

// RemoveChild detaches child from parent when parent is a member.
//
// Every node of the detached subtree gets (time, RemovedFromTree) as its most
// recent use and leaves the graph. The walk visits each node once, so
// duplicated or cyclic edges in a corrupted trace still terminate.
func (g *DOMGraph) RemoveChild(parent, child ObjectID, time int64) {
	set, ok := g.children[parent]
	if !ok {
		return
	}
	delete(set, child)

	visited := map[ObjectID]bool{child: true}
	queue := []ObjectID{child}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		g.usage.RecordLastUse(node, sourcemap.RemovedFromTree, time)

		for next := range g.children[node] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
		delete(g.children, node)
	}
}

// Contains reports whether id is a member.
func (g *DOMGraph) Contains(id ObjectID) bool {
	_, ok := g.children[id]
	return ok
}

// Children returns the children of id in ascending order.
func (g *DOMGraph) Children(id ObjectID) []ObjectID {
	set := g.children[id]
	out := make([]ObjectID, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of members.
func (g *DOMGraph) Len() int {
	return len(g.children)
}
