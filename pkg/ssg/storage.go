package ssg

import "github.com/therealutkarshpriyadarshi/vector/pkg/vector"

type dumpState[E vector.Float, T vector.Id] struct {
	Dim                  int
	AngleDegrees         float64
	InitK                int
	IndexSize            int
	NeighborNeighborSize int
	RootSize             int
	Threshold            E

	Nodes     []vector.Node[E, T]
	Graph     [][]int
	KnnGraph  [][]int
	RootNodes []int

	Metric vector.Metric
	Built  bool
}

func (ix *Index[E, T]) Dump(path string) error {
	s := dumpState[E, T]{
		Dim: ix.Dim, AngleDegrees: ix.angleDegrees, InitK: ix.initK, IndexSize: ix.indexSize,
		NeighborNeighborSize: ix.neighborNeighborSize, RootSize: ix.rootSize, Threshold: ix.threshold,
		Nodes: ix.nodes, Graph: ix.graph, KnnGraph: ix.knnGraph, RootNodes: ix.rootNodes,
		Metric: ix.metric, Built: ix.built,
	}
	return vector.Dump(path, codecMagic, s)
}

func (ix *Index[E, T]) Load(path string) error {
	var s dumpState[E, T]
	if err := vector.Load(path, codecMagic, &s); err != nil {
		return err
	}
	ix.Dim, ix.angleDegrees, ix.initK, ix.indexSize = s.Dim, s.AngleDegrees, s.InitK, s.IndexSize
	ix.neighborNeighborSize, ix.rootSize, ix.threshold = s.NeighborNeighborSize, s.RootSize, s.Threshold
	ix.nodes, ix.graph, ix.knnGraph, ix.rootNodes = s.Nodes, s.Graph, s.KnnGraph, s.RootNodes
	ix.metric, ix.built = s.Metric, s.Built
	return nil
}
