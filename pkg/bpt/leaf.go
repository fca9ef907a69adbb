package bpt

import "github.com/therealutkarshpriyadarshi/vector/pkg/vector"

// leaf is the forest's single node representation. Which fields are
// meaningful depends on nDescendants, matching the reference layout
// (original_source/src/index/bpt_idx.rs):
//
//   - nDescendants == 1: a raw data leaf — Node holds the inserted
//     vector/id, children is unused ([0,0]).
//   - nDescendants <= leafMaxItems (and > 1): a cluster leaf —
//     children holds the verbatim list of item-leaf indices it owns.
//   - otherwise: an internal split node — Node.Vec holds the split
//     hyperplane, children holds exactly [left, right] leaf indices.
type leaf[E vector.Float, T vector.Id] struct {
	nDescendants int
	children     []int
	node         vector.Node[E, T]
}

func newDataLeaf[E vector.Float, T vector.Id](v []E, id T) leaf[E, T] {
	return leaf[E, T]{
		nDescendants: 1,
		children:     []int{0, 0},
		node:         vector.NewNode(v, id),
	}
}

func newInternalLeaf[E vector.Float, T vector.Id]() leaf[E, T] {
	return leaf[E, T]{children: []int{0, 0}}
}

func (l leaf[E, T]) normalized() leaf[E, T] {
	norm := vector.Norm(l.node.Vec)
	if norm <= 0 {
		return l
	}
	v := make([]E, len(l.node.Vec))
	for i, x := range l.node.Vec {
		v[i] = x / norm
	}
	l.node.Vec = v
	return l
}
