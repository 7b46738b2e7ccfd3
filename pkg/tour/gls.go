package tour

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults for GuidedLocalSearch.
const (
	DefaultNeighbors   = 8
	DefaultLambda      = 0.3
	DefaultStallRounds = 2000
)

// GuidedLocalSearch builds a path by repeatedly extending it with the
// cheapest arc, then improves it with 2-opt and or-opt moves. Whenever the
// local search gets stuck, the edge with the highest cost-to-penalty ratio
// is penalized and the search resumes on the penalized costs. The best
// order seen under the real costs is returned.
type GuidedLocalSearch struct {
	Neighbors   int         // candidate list size per node
	Lambda      float64     // penalty weight relative to the mean edge cost
	StallRounds int         // penalty rounds without improvement before giving up
	Logger      *log.Logger // optional debug output
}

// Optimize implements Optimizer.
func (g GuidedLocalSearch) Optimize(ctx context.Context, m *Matrix, start, end int, budget time.Duration) ([]int, error) {
	n := m.N
	if n == 0 {
		return nil, fmt.Errorf("empty matrix")
	}
	closed := start == NoEndpoint && end == NoEndpoint
	if !closed {
		if start < 0 || start >= n || end < 0 || end >= n {
			return nil, fmt.Errorf("endpoints %d, %d out of range", start, end)
		}
		if start == end && n > 1 {
			return nil, fmt.Errorf("open path needs distinct endpoints")
		}
	}
	switch {
	case n == 1:
		return []int{0}, nil
	case n == 2 && closed:
		return []int{0, 1}, nil
	case n == 2:
		return []int{start, end}, nil
	}

	deadline := time.Now().Add(budget)
	if closed {
		start, end = 0, 0
	}

	path, err := cheapestArc(ctx, m, start, end, closed)
	if err != nil {
		return nil, err
	}

	s := newSearch(m, path, g.neighbors(), deadline)
	s.run(ctx)
	best := append([]int(nil), s.p...)
	bestCost := s.realCost()
	if g.Logger != nil {
		g.Logger.Debug("local optimum", "cost", bestCost)
	}

	s.lambda = g.lambda() * float64(bestCost) / float64(n)
	stall, rounds := 0, 0
	for stall < g.stallRounds() && !s.expired() && s.lambda > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rounds++
		s.penalize()
		s.run(ctx)
		if c := s.realCost(); c < bestCost {
			bestCost = c
			copy(best, s.p)
			stall = 0
		} else {
			stall++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.Logger != nil {
		g.Logger.Debug("guided local search done", "cost", bestCost, "rounds", rounds)
	}

	if closed {
		best = best[:n]
	}
	return best, nil
}

func (g GuidedLocalSearch) neighbors() int {
	if g.Neighbors > 0 {
		return g.Neighbors
	}
	return DefaultNeighbors
}

func (g GuidedLocalSearch) lambda() float64 {
	if g.Lambda > 0 {
		return g.Lambda
	}
	return DefaultLambda
}

func (g GuidedLocalSearch) stallRounds() int {
	if g.StallRounds > 0 {
		return g.StallRounds
	}
	return DefaultStallRounds
}

// cheapestArc grows a path from start by always appending the unvisited node
// closest to the current tail. For an open path end is held back until the
// last step; for a closed path the result is terminated by a second copy of
// start.
func cheapestArc(ctx context.Context, m *Matrix, start, end int, closed bool) ([]int, error) {
	n := m.N
	visited := make([]bool, n)
	path := make([]int, 0, n+1)
	path = append(path, start)
	visited[start] = true
	if !closed {
		visited[end] = true
	}

	remaining := n - 1
	if !closed {
		remaining--
	}
	tail := start
	for k := 0; k < remaining; k++ {
		if k%512 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		next, cost := -1, math.MaxInt
		for j := 0; j < n; j++ {
			if !visited[j] {
				if c := m.At(tail, j); c < cost {
					next, cost = j, c
				}
			}
		}
		visited[next] = true
		path = append(path, next)
		tail = next
	}
	return append(path, end), nil
}

// search improves a path whose first and last entries are fixed. A closed
// tour is represented as a path from node 0 back to node 0.
type search struct {
	m      *Matrix
	p      []int
	pos    []int
	nb     [][]int32
	pen    map[uint64]int32
	lambda float64

	queue    []int
	queued   []bool
	deadline time.Time
	steps    int
}

func newSearch(m *Matrix, path []int, k int, deadline time.Time) *search {
	s := &search{
		m:        m,
		p:        path,
		pos:      make([]int, m.N),
		nb:       neighborLists(m, k),
		pen:      make(map[uint64]int32),
		queued:   make([]bool, m.N),
		deadline: deadline,
	}
	for i := len(path) - 1; i >= 0; i-- {
		s.pos[path[i]] = i
	}
	for i := 1; i < len(path)-1; i++ {
		s.push(path[i])
	}
	s.push(path[0])
	return s
}

// neighborLists returns, for each node, its k cheapest other nodes sorted
// by cost, ties broken by index.
func neighborLists(m *Matrix, k int) [][]int32 {
	n := m.N
	k = min(k, n-1)
	out := make([][]int32, n)
	for i := 0; i < n; i++ {
		list := make([]int32, 0, k)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			c := m.At(i, j)
			if len(list) == k && c >= m.At(i, int(list[k-1])) {
				continue
			}
			// Insertion into the short sorted list.
			at := sort.Search(len(list), func(x int) bool { return m.At(i, int(list[x])) > c })
			if len(list) < k {
				list = append(list, 0)
			}
			copy(list[at+1:], list[at:len(list)-1])
			list[at] = int32(j)
		}
		out[i] = list
	}
	return out
}

func edgeKey(a, b int) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// w is the penalized cost used to evaluate moves.
func (s *search) w(a, b int) float64 {
	c := float64(s.m.At(a, b))
	if s.lambda > 0 {
		c += s.lambda * float64(s.pen[edgeKey(a, b)])
	}
	return c
}

func (s *search) realCost() int {
	return s.m.Cost(s.p, false)
}

func (s *search) expired() bool {
	return !time.Now().Before(s.deadline)
}

func (s *search) push(node int) {
	if !s.queued[node] {
		s.queued[node] = true
		s.queue = append(s.queue, node)
	}
}

// run applies improving moves until none is left or the budget runs out.
func (s *search) run(ctx context.Context) {
	for len(s.queue) > 0 {
		s.steps++
		if s.steps%256 == 0 && (s.expired() || ctx.Err() != nil) {
			return
		}
		a := s.queue[0]
		s.queue = s.queue[1:]
		s.queued[a] = false
		if s.twoOpt(a) || s.orOpt(a) {
			s.push(a)
		}
	}
}

const eps = 1e-9

// twoOpt tries to connect a directly to one of its neighbours by reversing
// the stretch between them.
func (s *search) twoOpt(a int) bool {
	last := len(s.p) - 2
	i := s.pos[a]
	for _, c32 := range s.nb[a] {
		c := int(c32)
		j := s.pos[c]
		// a→succ(a) with c→succ(c), then pred(a)→a with pred(c)→c.
		if i <= last && j <= last && s.try2opt(i, j) {
			return true
		}
		if i >= 1 && j >= 1 && i-1 <= last && j-1 <= last && s.try2opt(i-1, j-1) {
			return true
		}
	}
	return false
}

// try2opt replaces edges at positions e1 and e2 by reversing the path
// between them if that lowers the cost.
func (s *search) try2opt(e1, e2 int) bool {
	lo, hi := min(e1, e2), max(e1, e2)
	if hi-lo < 2 {
		return false
	}
	p := s.p
	a, b, c, d := p[lo], p[lo+1], p[hi], p[hi+1]
	delta := s.w(a, c) + s.w(b, d) - s.w(a, b) - s.w(c, d)
	if delta >= -eps {
		return false
	}
	s.reverse(lo+1, hi)
	s.push(a)
	s.push(b)
	s.push(c)
	s.push(d)
	return true
}

func (s *search) reverse(i, j int) {
	for ; i < j; i, j = i+1, j-1 {
		s.p[i], s.p[j] = s.p[j], s.p[i]
		s.pos[s.p[i]] = i
		s.pos[s.p[j]] = j
	}
	if i == j {
		s.pos[s.p[i]] = i
	}
}

// orOpt tries to move a segment of up to three nodes starting at a next to
// one of a's neighbours, in either orientation.
func (s *search) orOpt(a int) bool {
	p := s.p
	st := s.pos[a]
	if st < 1 || st > len(p)-2 {
		return false
	}
	for k := 1; k <= 3; k++ {
		en := st + k - 1
		if en > len(p)-2 {
			break
		}
		prev, next := p[st-1], p[en+1]
		first, lastNode := p[st], p[en]
		gain := s.w(prev, first) + s.w(lastNode, next) - s.w(prev, next)

		for _, c32 := range s.nb[a] {
			c := int(c32)
			cp := s.pos[c]
			for _, q := range [2]int{cp, cp - 1} {
				if q < 0 || q > len(p)-2 || (q >= st-1 && q <= en) {
					continue
				}
				x, y := p[q], p[q+1]
				base := s.w(x, y)
				fwd := s.w(x, first) + s.w(lastNode, y) - base
				rev := s.w(x, lastNode) + s.w(first, y) - base
				if fwd-gain < -eps && fwd <= rev {
					s.moveSegment(st, k, q, false)
					s.push(prev)
					s.push(next)
					s.push(x)
					s.push(y)
					return true
				}
				if rev-gain < -eps {
					s.moveSegment(st, k, q, true)
					s.push(prev)
					s.push(next)
					s.push(x)
					s.push(y)
					return true
				}
			}
		}
	}
	return false
}

// moveSegment moves p[st:st+k] so it sits between positions q and q+1 of
// the current path.
func (s *search) moveSegment(st, k, q int, reversed bool) {
	p := s.p
	seg := make([]int, k)
	copy(seg, p[st:st+k])
	if reversed {
		for i, j := 0, k-1; i < j; i, j = i+1, j-1 {
			seg[i], seg[j] = seg[j], seg[i]
		}
	}
	var lo, hi int
	if q < st {
		copy(p[q+1+k:st+k], p[q+1:st])
		copy(p[q+1:], seg)
		lo, hi = q+1, st+k-1
	} else {
		copy(p[st:q-k+1], p[st+k:q+1])
		copy(p[q-k+1:], seg)
		lo, hi = st, q
	}
	for i := lo; i <= hi; i++ {
		s.pos[p[i]] = i
	}
}

// penalize raises the penalty of the path edges with the highest utility,
// cost divided by one plus the current penalty, and requeues their ends.
func (s *search) penalize() {
	best := -1.0
	var picks []int
	for i := 0; i < len(s.p)-1; i++ {
		a, b := s.p[i], s.p[i+1]
		u := float64(s.m.At(a, b)) / float64(1+s.pen[edgeKey(a, b)])
		switch {
		case u > best+eps:
			best = u
			picks = append(picks[:0], i)
		case u > best-eps:
			picks = append(picks, i)
		}
	}
	for _, i := range picks {
		a, b := s.p[i], s.p[i+1]
		s.pen[edgeKey(a, b)]++
		s.push(a)
		s.push(b)
	}
}
