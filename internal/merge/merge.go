package merge

import (
	"iter"
	"log/slog"
	"slices"

	"github.com/olehluchkiv/ifacegen/internal/decl"
)

// DefaultMarkerBase is the reflective base protocol that every generated
// mock may opt into. It never forms a dependency edge.
const DefaultMarkerBase = "NSObjectProtocol"

// Options controls resolution.
type Options struct {
	MarkerBase string // excluded from edges but propagated to descendants; "" disables
	Flat       bool   // skip melding, keep first-encountered order
	Logger     *slog.Logger
}

// Replacement records a key declared more than once in a batch.
// The later declaration wins.
type Replacement struct {
	Key            string
	Origin         string
	PreviousOrigin string
}

// Result holds the merged interfaces and input diagnostics.
type Result struct {
	Interfaces   []decl.Interface // ancestors before descendants
	EmptyOrigins []string         // sources that declared no interface
	Replaced     []Replacement
}

// Interface returns the merged interface with the given key.
func (r *Result) Interface(key string) (decl.Interface, bool) {
	for _, iface := range r.Interfaces {
		if iface.Key == key {
			return iface, true
		}
	}
	return decl.Interface{}, false
}

// Resolve drains sources once and merges every interface with its
// transitive ancestors. Ancestor members are prepended to the descendant's
// own. A member reaching a descendant along several paths of a diamond is
// kept once, at its first position; members declared twice at distinct
// sites are both kept. A cycle anywhere fails the whole batch with a
// *CycleError and no partial result. Errors are returned, not logged.
func Resolve(sources iter.Seq[decl.Source], opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "merge")

	g := newGraph(opts.MarkerBase)
	res := &Result{}

	for src := range sources {
		if len(src.Interfaces) == 0 {
			if src.Origin != "" {
				res.EmptyOrigins = append(res.EmptyOrigins, src.Origin)
				logger.Debug("source declared no interfaces", "origin", src.Origin)
			}
			continue
		}
		for _, iface := range src.Interfaces {
			if iface.Origin == "" {
				iface.Origin = src.Origin
			}
			if prev, ok := g.add(iface); ok {
				res.Replaced = append(res.Replaced, Replacement{
					Key:            iface.Key,
					Origin:         iface.Origin,
					PreviousOrigin: prev.Origin,
				})
				logger.Warn("duplicate interface key, later declaration wins",
					"key", iface.Key, "origin", iface.Origin, "previous_origin", prev.Origin)
			}
		}
	}

	logger.Info("interfaces collected", "interfaces", len(g.nodes), "empty_sources", len(res.EmptyOrigins))

	if opts.Flat {
		res.Interfaces = make([]decl.Interface, len(g.nodes))
		for i, n := range g.nodes {
			res.Interfaces[i] = n.iface
		}
		return res, nil
	}

	g.link()
	merged, err := g.resolve(logger)
	if err != nil {
		return nil, err
	}
	res.Interfaces = merged

	logger.Info("interfaces resolved", "interfaces", len(merged))
	return res, nil
}

type node struct {
	iface    decl.Interface
	sites    []site // declaration site of each member, parallel to iface.Members
	deps     []int  // filtered dependency list
	children []int  // nodes whose deps contain this one, in node order
}

// site identifies where a member was declared: owning node and position.
type site struct {
	owner   int
	ordinal int
}

// graph stores interfaces in an arena; edges are indices into nodes.
type graph struct {
	marker string
	nodes  []node
	index  map[string]int
}

func newGraph(marker string) *graph {
	return &graph{marker: marker, index: make(map[string]int)}
}

// add inserts iface, replacing any earlier node with the same key in place.
func (g *graph) add(iface decl.Interface) (decl.Interface, bool) {
	if i, ok := g.index[iface.Key]; ok {
		prev := g.nodes[i].iface
		g.nodes[i].iface = iface
		return prev, true
	}
	g.index[iface.Key] = len(g.nodes)
	g.nodes = append(g.nodes, node{iface: iface})
	return decl.Interface{}, false
}

func (g *graph) isMarker(key string) bool {
	return g.marker != "" && key == g.marker
}

// link computes the filtered dependency lists: the marker base and keys
// outside the batch are dropped, repeats collapse into one edge.
func (g *graph) link() {
	for i := range g.nodes {
		g.nodes[i].sites = make([]site, len(g.nodes[i].iface.Members))
		for k := range g.nodes[i].sites {
			g.nodes[i].sites[k] = site{owner: i, ordinal: k}
		}
	}
	for i := range g.nodes {
		seen := make(map[int]bool)
		for _, key := range g.nodes[i].iface.Inherits {
			if g.isMarker(key) {
				continue
			}
			j, ok := g.index[key]
			if !ok || seen[j] {
				continue
			}
			seen[j] = true
			g.nodes[i].deps = append(g.nodes[i].deps, j)
			g.nodes[j].children = append(g.nodes[j].children, i)
		}
	}
}

func (g *graph) resolve(logger *slog.Logger) ([]decl.Interface, error) {
	indegree := make([]int, len(g.nodes))
	var ready []int
	for i, n := range g.nodes {
		indegree[i] = len(n.deps)
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	for head := 0; head < len(ready); head++ {
		parent := ready[head]
		for _, child := range g.nodes[parent].children {
			g.meld(&g.nodes[parent], &g.nodes[child])
			logger.Debug("melded interface",
				"parent", g.nodes[parent].iface.Key, "child", g.nodes[child].iface.Key)
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(ready) != len(g.nodes) {
		return nil, g.cycleError(indegree)
	}

	out := make([]decl.Interface, len(ready))
	for k, i := range ready {
		out[k] = g.nodes[i].iface
	}
	return out, nil
}

// meld replaces child's interface with a new value whose members and
// imports are prefixed by the parent's. Members the child already received
// through another path (same declaration site) are not copied again. The
// marker base is prepended when only the parent carries it.
func (g *graph) meld(parent, child *node) {
	have := make(map[site]bool, len(child.sites))
	for _, s := range child.sites {
		have[s] = true
	}

	members := make([]decl.Member, 0, len(parent.iface.Members)+len(child.iface.Members))
	sites := make([]site, 0, cap(members))
	for k, m := range parent.iface.Members {
		if have[parent.sites[k]] {
			continue
		}
		members = append(members, m)
		sites = append(sites, parent.sites[k])
	}
	members = append(members, child.iface.Members...)
	sites = append(sites, child.sites...)

	out := child.iface
	out.Members = members
	out.Imports = decl.UnionImports(parent.iface.Imports, child.iface.Imports)
	if g.marker != "" && parent.iface.HasInherit(g.marker) && !child.iface.HasInherit(g.marker) {
		out.Inherits = slices.Concat([]string{g.marker}, child.iface.Inherits)
	}
	child.iface = out
	child.sites = sites
}

// cycleError walks unresolved dependencies from the first unresolved node
// until a node repeats. Every unresolved node has at least one unresolved
// dependency, so the walk always closes.
func (g *graph) cycleError(indegree []int) *CycleError {
	e := &CycleError{}
	start := -1
	for i := range g.nodes {
		if indegree[i] > 0 {
			e.Unresolved = append(e.Unresolved, g.nodes[i].iface.Key)
			if start < 0 {
				start = i
			}
		}
	}

	pos := make(map[int]int)
	var path []int
	for cur := start; ; {
		if at, seen := pos[cur]; seen {
			for _, i := range path[at:] {
				e.Cycle = append(e.Cycle, g.nodes[i].iface.Key)
			}
			e.Cycle = append(e.Cycle, g.nodes[cur].iface.Key)
			return e
		}
		pos[cur] = len(path)
		path = append(path, cur)
		next := -1
		for _, d := range g.nodes[cur].deps {
			if indegree[d] > 0 {
				next = d
				break
			}
		}
		if next < 0 {
			// Unreachable while indegree is consistent with deps.
			e.Cycle = append(e.Cycle, g.nodes[cur].iface.Key)
			return e
		}
		cur = next
	}
}
