// Package engine is the in-process namespace store backing the demo
// HTTP service: each namespace owns one ANN index selected by
// algorithm name, built lazily over the vectors inserted since the
// last build. Grounded on the teacher's pkg/api/grpc service layer
// (handlers.go's per-namespace index map), adapted from a gRPC-fronted
// index manager to a direct in-process one — the teacher's generated
// proto stubs are not present in the retrieved tree, so the RPC
// transport is dropped in favor of this package sitting directly
// behind pkg/api/rest (see DESIGN.md).
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/vector/pkg/bpt"
	"github.com/therealutkarshpriyadarshi/vector/pkg/bruteforce"
	"github.com/therealutkarshpriyadarshi/vector/pkg/hnsw"
	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/ivfpq"
	"github.com/therealutkarshpriyadarshi/vector/pkg/observability"
	"github.com/therealutkarshpriyadarshi/vector/pkg/pq"
	"github.com/therealutkarshpriyadarshi/vector/pkg/ssg"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// Params bundles every algorithm's typed parameter record; newIndex
// picks the one matching Algorithm and ignores the rest.
type Params struct {
	Algorithm string
	Metric    vector.Metric

	HNSW       idx.HNSWParams
	SSG        idx.SSGParams
	PQ         idx.PQParams
	IVFPQ      idx.IVFPQParams
	BPT        idx.BPTParams
	BruteForce idx.BruteForceParams
}

func newIndex(algorithm string, dim int, p Params) (idx.Index[float32, string], error) {
	switch algorithm {
	case "hnsw", "":
		return hnsw.New[float32, string](dim, p.HNSW), nil
	case "ssg":
		return ssg.New[float32, string](dim, p.SSG), nil
	case "pq":
		return pq.New[float32, string](dim, p.PQ), nil
	case "ivfpq":
		return ivfpq.New[float32, string](dim, p.IVFPQ), nil
	case "bpt":
		return bpt.New[float32, string](dim, p.BPT), nil
	case "bruteforce":
		return bruteforce.New[float32, string](dim, p.BruteForce), nil
	default:
		return nil, fmt.Errorf("engine: unknown algorithm %q", algorithm)
	}
}

type record struct {
	vector   []float32
	metadata map[string]string
	text     string
}

// Namespace is one named, single-dimension, single-algorithm
// collection of vectors. Inserts and deletes buffer into records and
// mark the index dirty; Search rebuilds from scratch first if dirty.
// Rebuild-on-search trades incremental-update performance for
// correctness across all six algorithms uniformly, appropriate for
// the demo service this package backs (cmd/server, cmd/cli) rather
// than a production ingestion path.
type Namespace struct {
	mu      sync.RWMutex
	dim     int
	params  Params
	records map[string]record
	index   idx.Index[float32, string]
	dirty   bool
}

func (ns *Namespace) rebuildLocked() error {
	index, err := newIndex(ns.params.Algorithm, ns.dim, ns.params)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(ns.records))
	vecs := make([][]float32, 0, len(ns.records))
	for id, rec := range ns.records {
		ids = append(ids, id)
		vecs = append(vecs, rec.vector)
	}
	if len(vecs) > 0 {
		if err := index.AddBatch(vecs, ids); err != nil {
			return err
		}
	}
	metric := ns.params.Metric
	if metric == vector.Unknown {
		metric = vector.Euclidean
	}
	if err := index.Build(metric); err != nil {
		return err
	}
	ns.index = index
	ns.dirty = false
	return nil
}

// Engine owns every namespace and the ambient logging/metrics hooks
// instrumenting inserts, deletes, and searches across all of them.
type Engine struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
	defaults   Params
	startTime  time.Time
	metrics    *observability.Metrics
	log        *observability.Logger
}

// New constructs an Engine. metrics/log may be nil to opt out of
// instrumentation (log falls back to observability's default logger).
func New(defaults Params, metrics *observability.Metrics, log *observability.Logger) *Engine {
	if log == nil {
		log = observability.NewDefaultLogger()
	}
	return &Engine{
		namespaces: make(map[string]*Namespace),
		defaults:   defaults,
		startTime:  time.Now(),
		metrics:    metrics,
		log:        log,
	}
}

func (e *Engine) namespace(name string, dim int) (*Namespace, error) {
	e.mu.RLock()
	ns, ok := e.namespaces[name]
	e.mu.RUnlock()
	if ok {
		return ns, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ns, ok = e.namespaces[name]; ok {
		return ns, nil
	}
	params := e.defaults
	index, err := newIndex(params.Algorithm, dim, params)
	if err != nil {
		return nil, err
	}
	ns = &Namespace{
		dim:     dim,
		params:  params,
		records: make(map[string]record),
		index:   index,
		dirty:   true,
	}
	e.namespaces[name] = ns
	e.log.Info("namespace created", map[string]interface{}{
		"namespace": name, "algorithm": params.Algorithm, "dim": dim,
	})
	return ns, nil
}

// Insert adds or overwrites id's vector/metadata/text in namespace,
// creating the namespace (and fixing its dimension) on first use.
func (e *Engine) Insert(namespace, id string, v []float32, metadata map[string]string, text string) error {
	ns, err := e.namespace(namespace, len(v))
	if err != nil {
		return err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if len(v) != ns.dim {
		return vector.New(vector.DimensionMismatch, "insert: vector dimension mismatch")
	}
	ns.records[id] = record{vector: append([]float32(nil), v...), metadata: metadata, text: text}
	ns.dirty = true
	if e.metrics != nil {
		e.metrics.RecordInsert(namespace, 1)
	}
	return nil
}

// SearchResult is one ranked hit returned from Search.
type SearchResult struct {
	ID       string
	Distance float32
	Metadata map[string]string
	Text     string
	Vector   []float32
}

// Search rebuilds namespace's index if dirty, then returns its k
// nearest neighbors to query.
func (e *Engine) Search(namespace string, query []float32, k int) ([]SearchResult, error) {
	e.mu.RLock()
	ns, ok := e.namespaces[namespace]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: unknown namespace %q", namespace)
	}

	start := time.Now()
	ns.mu.Lock()
	if ns.dirty {
		if err := ns.rebuildLocked(); err != nil {
			ns.mu.Unlock()
			return nil, err
		}
	}
	if len(query) != ns.dim {
		ns.mu.Unlock()
		return nil, vector.New(vector.DimensionMismatch, "search: query dimension mismatch")
	}
	neighbors := ns.index.SearchFull(query, k)
	out := make([]SearchResult, len(neighbors))
	for i, n := range neighbors {
		rec := ns.records[n.ID]
		out[i] = SearchResult{ID: n.ID, Distance: n.Distance, Metadata: rec.metadata, Text: rec.text, Vector: rec.vector}
	}
	ns.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordSearch(time.Since(start), len(out))
	}
	return out, nil
}

// Delete removes id from namespace, marking the index dirty. It
// reports whether id was present.
func (e *Engine) Delete(namespace, id string) (bool, error) {
	e.mu.RLock()
	ns, ok := e.namespaces[namespace]
	e.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("engine: unknown namespace %q", namespace)
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if _, exists := ns.records[id]; !exists {
		return false, nil
	}
	delete(ns.records, id)
	ns.dirty = true
	if e.metrics != nil {
		e.metrics.RecordDelete(namespace, 1)
	}
	return true, nil
}

// Update merges the given non-nil fields into id's existing record.
func (e *Engine) Update(namespace, id string, v []float32, metadata map[string]string, text *string) error {
	e.mu.RLock()
	ns, ok := e.namespaces[namespace]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("engine: unknown namespace %q", namespace)
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	rec, exists := ns.records[id]
	if !exists {
		return fmt.Errorf("engine: id %q not found in namespace %q", id, namespace)
	}
	if v != nil {
		if len(v) != ns.dim {
			return vector.New(vector.DimensionMismatch, "update: vector dimension mismatch")
		}
		rec.vector = append([]float32(nil), v...)
	}
	if metadata != nil {
		rec.metadata = metadata
	}
	if text != nil {
		rec.text = *text
	}
	ns.records[id] = rec
	ns.dirty = true
	if e.metrics != nil {
		e.metrics.RecordUpdate(namespace, 1)
	}
	return nil
}

// NamespaceStats summarizes one namespace's size.
type NamespaceStats struct {
	VectorCount int
	Dimensions  int
	MemoryBytes int64
}

// Stats summarizes every namespace in the engine.
type Stats struct {
	TotalVectors     int
	TotalNamespaces  int
	MemoryUsageBytes int64
	Namespaces       map[string]NamespaceStats
}

// Stats reports a size summary across all namespaces, or just the
// named one if namespace is non-empty.
func (e *Engine) Stats(namespace string) Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := Stats{Namespaces: make(map[string]NamespaceStats)}
	for name, ns := range e.namespaces {
		if namespace != "" && name != namespace {
			continue
		}
		ns.mu.RLock()
		count := len(ns.records)
		mem := int64(count) * int64(ns.dim) * 4
		out.Namespaces[name] = NamespaceStats{VectorCount: count, Dimensions: ns.dim, MemoryBytes: mem}
		out.TotalVectors += count
		out.MemoryUsageBytes += mem
		ns.mu.RUnlock()
	}
	out.TotalNamespaces = len(out.Namespaces)
	if namespace != "" {
		e.mu.RLock()
		_, ok := e.namespaces[namespace]
		e.mu.RUnlock()
		if !ok {
			out.TotalNamespaces = 0
		}
	} else {
		out.TotalNamespaces = len(e.namespaces)
	}
	return out
}

// Uptime reports how long the engine has been running.
func (e *Engine) Uptime() time.Duration {
	return time.Since(e.startTime)
}
