// Package dedupe assigns collision-free identifiers to overloaded members.
//
// Generated code cannot overload on parameter types, so every member of an
// interface needs its own symbol name. Members are processed grouped by
// name, fewest parameters first, then in declaration order. The first
// member of every group keeps its bare name, and those names are reserved
// before any other member is placed. Each remaining member appends its
// labels one at a time until the result is unclaimed; when the labels run
// out a numeric suffix is added.
package dedupe

import (
	"cmp"
	"slices"
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/olehluchkiv/ifacegen/internal/decl"
)

// NameMap holds the identifier assigned to each member of one interface.
type NameMap struct {
	names      []string
	byIdentity map[decl.Identity][]string
}

// Name returns the identifier of the i-th member.
func (m *NameMap) Name(i int) string {
	return m.names[i]
}

// Names returns all identifiers in member order.
func (m *NameMap) Names() []string {
	return slices.Clone(m.names)
}

// Lookup returns every identifier assigned to members with this identity,
// in declaration order. True duplicates yield more than one.
func (m *NameMap) Lookup(id decl.Identity) []string {
	return m.byIdentity[id]
}

// Len returns the number of members.
func (m *NameMap) Len() int {
	return len(m.names)
}

// Assign computes identifiers for members. It never fails.
func Assign(members []decl.Member) *NameMap {
	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(members[a].Name, members[b].Name); c != 0 {
			return c
		}
		return cmp.Compare(len(members[a].Params), len(members[b].Params))
	})

	// Casers are stateful; one per call keeps Assign safe for concurrent use.
	upper := cases.Upper(language.Und)
	claimed := make(map[string]bool, len(members))
	variants := make(map[string]int)
	names := make([]string, len(members))
	placed := make([]bool, len(members))

	// A bare name never yields to another group's label extension.
	for _, i := range order {
		if name := members[i].Name; !claimed[name] {
			claimed[name] = true
			names[i] = name
			placed[i] = true
		}
	}

	for _, i := range order {
		if placed[i] {
			continue
		}
		d := members[i].Descriptor()
		candidate := d.Name
		for k := 0; claimed[candidate] && k < len(d.Labels); k++ {
			candidate += capitalize(upper, d.Labels[k])
		}
		if claimed[candidate] {
			base := candidate
			for claimed[candidate] {
				variants[base]++
				candidate = base + strconv.Itoa(variants[base])
			}
		}
		claimed[candidate] = true
		names[i] = candidate
	}

	byIdentity := make(map[decl.Identity][]string, len(members))
	for i, m := range members {
		id := m.Identity()
		byIdentity[id] = append(byIdentity[id], names[i])
	}
	return &NameMap{names: names, byIdentity: byIdentity}
}

// capitalize upper-cases the first rune of label when it is a letter.
func capitalize(upper cases.Caser, label string) string {
	r, size := utf8.DecodeRuneInString(label)
	if size == 0 || !unicode.IsLetter(r) {
		return label
	}
	return upper.String(label[:size]) + label[size:]
}
