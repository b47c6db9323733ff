// Package hnsw is an in-memory hierarchical navigable small world graph over
// cosine distance. It backs the memory repository and offline index checks;
// the production index lives in pgvector.
package hnsw

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
)

var ErrDimensionMismatch = errors.New("hnsw: vector dimension mismatch")

type Config struct {
	// M is the number of links per node on upper layers; layer 0 keeps 2*M.
	M              int
	EfConstruction int
	MaxLevel       int
	Seed           uint64
}

func DefaultConfig() Config {
	return Config{
		M:              16,
		EfConstruction: 200,
		MaxLevel:       16,
		Seed:           42,
	}
}

// Result is a search hit. Distance is cosine distance, 1 - similarity.
type Result struct {
	ID       int64
	Distance float64
}

func (r Result) Similarity() float64 { return 1 - r.Distance }

type node struct {
	id     int64
	vector []float32 // unit length
	level  int
	links  [][]int64 // level -> neighbor ids
}

type Index struct {
	mu        sync.RWMutex
	dim       int
	cfg       Config
	rng       *rand.Rand
	nodes     map[int64]*node
	entry     int64
	hasEntry  bool
	maxLevel  int
	levelMult float64
}

// New returns an empty index for vectors of length dim.
func New(dim int, cfg Config) *Index {
	if cfg.M < 2 {
		cfg.M = DefaultConfig().M
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = DefaultConfig().EfConstruction
	}
	if cfg.MaxLevel <= 0 {
		cfg.MaxLevel = DefaultConfig().MaxLevel
	}
	return &Index{
		dim:       dim,
		cfg:       cfg,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		nodes:     make(map[int64]*node),
		levelMult: 1 / math.Log(float64(cfg.M)),
	}
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.nodes)
}

func (x *Index) Dim() int { return x.dim }

// Vector returns the stored unit vector for id.
func (x *Index) Vector(id int64) ([]float32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n, ok := x.nodes[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(n.vector), true
}

// Add inserts v under id, replacing any vector already stored for it.
func (x *Index) Add(id int64, v []float32) error {
	if len(v) != x.dim {
		return fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(v), x.dim)
	}
	unit := normalize(v)

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.nodes[id]; ok {
		x.remove(id)
	}

	level := x.randomLevel()
	n := &node{id: id, vector: unit, level: level, links: make([][]int64, level+1)}
	x.nodes[id] = n

	if !x.hasEntry {
		x.entry, x.hasEntry, x.maxLevel = id, true, level
		return nil
	}

	ep := x.entry
	for l := x.maxLevel; l > level; l-- {
		ep = x.greedyClosest(unit, ep, l)
	}

	for l := min(level, x.maxLevel); l >= 0; l-- {
		candidates := x.searchLayer(unit, ep, x.cfg.EfConstruction, l)
		neighbors := candidates
		if len(neighbors) > x.cfg.M {
			neighbors = neighbors[:x.cfg.M]
		}
		n.links[l] = make([]int64, 0, len(neighbors))
		for _, c := range neighbors {
			if c.ID == id {
				continue
			}
			n.links[l] = append(n.links[l], c.ID)
			peer := x.nodes[c.ID]
			peer.links[l] = append(peer.links[l], id)
			if len(peer.links[l]) > x.maxLinks(l) {
				x.prune(peer, l)
			}
		}
		if len(candidates) > 0 {
			ep = candidates[0].ID
		}
	}

	if level > x.maxLevel {
		x.entry, x.maxLevel = id, level
	}
	return nil
}

// Delete removes id and every link pointing to it. Deleting an unknown id is
// a no-op.
func (x *Index) Delete(id int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.remove(id)
}

func (x *Index) remove(id int64) {
	n, ok := x.nodes[id]
	if !ok {
		return
	}
	delete(x.nodes, id)

	// Pruning leaves links one-directional, so in-links can only be found
	// by scanning every node that shares a layer with the removed one.
	for _, other := range x.nodes {
		for l := 0; l <= min(n.level, other.level); l++ {
			before := len(other.links[l])
			other.links[l] = slices.DeleteFunc(other.links[l], func(v int64) bool { return v == id })
			if len(other.links[l]) != before {
				x.repair(other, l, n.links[l])
			}
		}
	}

	if x.entry != id {
		return
	}
	x.hasEntry, x.maxLevel = false, 0
	for nid, other := range x.nodes {
		if !x.hasEntry || other.level > x.maxLevel || (other.level == x.maxLevel && nid < x.entry) {
			x.entry, x.hasEntry, x.maxLevel = nid, true, other.level
		}
	}
}

// repair refills n's links on level from the removed node's neighbours,
// closest first, so paths that ran through the removed node stay connected.
func (x *Index) repair(n *node, level int, candidates []int64) {
	scored := make([]Result, 0, len(candidates))
	for _, cid := range candidates {
		c, ok := x.nodes[cid]
		if !ok || cid == n.id || slices.Contains(n.links[level], cid) {
			continue
		}
		scored = append(scored, Result{ID: cid, Distance: distance(n.vector, c.vector)})
	}
	sortResults(scored)
	for _, r := range scored {
		if len(n.links[level]) >= x.maxLinks(level) {
			break
		}
		n.links[level] = append(n.links[level], r.ID)
	}
}

// Search returns up to k approximate nearest neighbors of q ordered by
// ascending distance. ef is raised to k when smaller.
func (x *Index) Search(q []float32, k, ef int) ([]Result, error) {
	if len(q) != x.dim {
		return nil, fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(q), x.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	unit := normalize(q)

	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.hasEntry {
		return nil, nil
	}
	ef = max(ef, k)

	ep := x.entry
	for l := x.maxLevel; l > 0; l-- {
		ep = x.greedyClosest(unit, ep, l)
	}
	results := x.searchLayer(unit, ep, ef, 0)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// BruteForce scans every stored vector. It is the reference the graph search
// is measured against.
func (x *Index) BruteForce(q []float32, k int) ([]Result, error) {
	if len(q) != x.dim {
		return nil, fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(q), x.dim)
	}
	unit := normalize(q)

	x.mu.RLock()
	out := make([]Result, 0, len(x.nodes))
	for id, n := range x.nodes {
		out = append(out, Result{ID: id, Distance: distance(unit, n.vector)})
	}
	x.mu.RUnlock()

	sortResults(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (x *Index) randomLevel() int {
	level := int(-math.Log(1-x.rng.Float64()) * x.levelMult)
	return min(level, x.cfg.MaxLevel-1)
}

func (x *Index) maxLinks(level int) int {
	if level == 0 {
		return 2 * x.cfg.M
	}
	return x.cfg.M
}

func (x *Index) greedyClosest(q []float32, ep int64, level int) int64 {
	cur := ep
	curDist := distance(q, x.nodes[cur].vector)
	for changed := true; changed; {
		changed = false
		n := x.nodes[cur]
		if level >= len(n.links) {
			break
		}
		for _, pid := range n.links[level] {
			if d := distance(q, x.nodes[pid].vector); d < curDist {
				cur, curDist, changed = pid, d, true
			}
		}
	}
	return cur
}

// searchLayer is the ef-bounded beam search on one layer. The result is
// sorted by ascending distance.
func (x *Index) searchLayer(q []float32, ep int64, ef int, level int) []Result {
	visited := map[int64]struct{}{ep: {}}
	start := Result{ID: ep, Distance: distance(q, x.nodes[ep].vector)}

	candidates := &minHeap{start}
	found := &maxHeap{start}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(Result)
		if found.Len() >= ef && c.Distance > (*found)[0].Distance {
			break
		}
		n := x.nodes[c.ID]
		if level >= len(n.links) {
			continue
		}
		for _, pid := range n.links[level] {
			if _, seen := visited[pid]; seen {
				continue
			}
			visited[pid] = struct{}{}
			d := distance(q, x.nodes[pid].vector)
			if found.Len() < ef || d < (*found)[0].Distance {
				r := Result{ID: pid, Distance: d}
				heap.Push(candidates, r)
				heap.Push(found, r)
				if found.Len() > ef {
					heap.Pop(found)
				}
			}
		}
	}

	out := slices.Clone([]Result(*found))
	sortResults(out)
	return out
}

func (x *Index) prune(n *node, level int) {
	scored := make([]Result, 0, len(n.links[level]))
	for _, pid := range n.links[level] {
		scored = append(scored, Result{ID: pid, Distance: distance(n.vector, x.nodes[pid].vector)})
	}
	sortResults(scored)
	scored = scored[:x.maxLinks(level)]
	n.links[level] = n.links[level][:0]
	for _, s := range scored {
		n.links[level] = append(n.links[level], s.ID)
	}
}

func sortResults(rs []Result) {
	slices.SortFunc(rs, func(a, b Result) int {
		if a.Distance != b.Distance {
			if a.Distance < b.Distance {
				return -1
			}
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func normalize(v []float32) []float32 {
	var ss float64
	for _, f := range v {
		ss += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if ss == 0 {
		return out
	}
	inv := 1 / math.Sqrt(ss)
	for i, f := range v {
		out[i] = float32(float64(f) * inv)
	}
	return out
}

// distance assumes unit vectors. A zero vector is at distance 1 from
// everything.
func distance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot
}

// Cosine returns the cosine similarity of a and b, 0 when either is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

type minHeap []Result

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].Distance < h[j].Distance }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(v any)        { *h = append(*h, v.(Result)) }
func (h *minHeap) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}

type maxHeap []Result

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(v any)        { *h = append(*h, v.(Result)) }
func (h *maxHeap) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}
