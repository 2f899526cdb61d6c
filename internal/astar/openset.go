package astar

import "container/heap"

// openSet is a container/heap priority queue of A* nodes, grounded on
// pkg/search/movelist.go's fixed-priority moveHeap: lower a·ply+b·bound sorts first, and
// ties break toward the node closer to the goal along g, then a hashed order (spec 4.9).
type openSet struct {
	nodes []*node
	a, b  int
}

func newOpenSet(a, b int) *openSet {
	return &openSet{a: a, b: b}
}

func (o *openSet) Len() int { return len(o.nodes) }

func (o *openSet) Less(i, j int) bool {
	pi, pj := o.nodes[i].priority(o.a, o.b), o.nodes[j].priority(o.a, o.b)
	if pi != pj {
		return pi < pj
	}
	if o.nodes[i].ply != o.nodes[j].ply {
		return o.nodes[i].ply > o.nodes[j].ply // prefer the node closer to the goal along g.
	}
	return nodeKey(o.nodes[i]) < nodeKey(o.nodes[j])
}

func (o *openSet) Swap(i, j int) {
	o.nodes[i], o.nodes[j] = o.nodes[j], o.nodes[i]
	o.nodes[i].index, o.nodes[j].index = i, j
}

func (o *openSet) Push(x interface{}) {
	n := x.(*node)
	n.index = len(o.nodes)
	o.nodes = append(o.nodes, n)
}

func (o *openSet) Pop() interface{} {
	n := len(o.nodes)
	item := o.nodes[n-1]
	o.nodes[n-1] = nil
	o.nodes = o.nodes[:n-1]
	return item
}

var _ heap.Interface = (*openSet)(nil)
