package hnsw

import "github.com/therealutkarshpriyadarshi/vector/pkg/vector"

type dumpState[E vector.Float, T vector.Id] struct {
	Dim         int
	MaxItem     int
	NNeighbor   int
	NNeighbor0  int
	MaxLevel    int
	EfBuild     int
	EfSearch    int
	HasDeletion bool

	Nodes     []vector.Node[E, T]
	IDIndex   map[T]int
	Levels    []int
	Neighbors [][][]int

	RootID   int
	CurLevel int
	Metric   vector.Metric
	Built    bool

	Tombstone []int
}

func (ix *Index[E, T]) Dump(path string) error {
	neigh := make([][][]int, len(ix.neighbors))
	for i, lists := range ix.neighbors {
		neigh[i] = make([][]int, len(lists))
		for l, ll := range lists {
			neigh[i][l] = ll.snapshot()
		}
	}
	ix.tombMu.RLock()
	tomb := make([]int, 0, len(ix.tombstone))
	for id := range ix.tombstone {
		tomb = append(tomb, id)
	}
	ix.tombMu.RUnlock()

	s := dumpState[E, T]{
		Dim: ix.Dim, MaxItem: ix.maxItem, NNeighbor: ix.nNeighbor, NNeighbor0: ix.nNeighbor0,
		MaxLevel: ix.maxLevel, EfBuild: ix.efBuild, EfSearch: ix.efSearch, HasDeletion: ix.hasDeletion,
		Nodes: ix.nodes, IDIndex: ix.idIndex, Levels: ix.levels, Neighbors: neigh,
		RootID: ix.rootID, CurLevel: ix.curLevel, Metric: ix.metric, Built: ix.built,
		Tombstone: tomb,
	}
	return vector.Dump(path, codecMagic, s)
}

func (ix *Index[E, T]) Load(path string) error {
	var s dumpState[E, T]
	if err := vector.Load(path, codecMagic, &s); err != nil {
		return err
	}
	ix.Dim, ix.maxItem, ix.nNeighbor, ix.nNeighbor0 = s.Dim, s.MaxItem, s.NNeighbor, s.NNeighbor0
	ix.maxLevel, ix.efBuild, ix.efSearch, ix.hasDeletion = s.MaxLevel, s.EfBuild, s.EfSearch, s.HasDeletion
	ix.nodes, ix.idIndex, ix.levels = s.Nodes, s.IDIndex, s.Levels

	ix.neighbors = make([][]*layerList, len(s.Neighbors))
	for i, lists := range s.Neighbors {
		ll := make([]*layerList, len(lists))
		for l, ids := range lists {
			ll[l] = &layerList{ids: ids}
		}
		ix.neighbors[i] = ll
	}

	ix.rootID, ix.curLevel, ix.metric, ix.built = s.RootID, s.CurLevel, s.Metric, s.Built

	ix.tombMu.Lock()
	ix.tombstone = make(map[int]struct{}, len(s.Tombstone))
	for _, t := range s.Tombstone {
		ix.tombstone[t] = struct{}{}
	}
	ix.tombMu.Unlock()
	return nil
}
