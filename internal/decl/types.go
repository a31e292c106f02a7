package decl

import (
	"slices"
	"strings"
)

// Wildcard is the external label meaning "no external label".
const Wildcard = "_"

// MemberKind distinguishes functions from properties.
type MemberKind int

const (
	KindFunction MemberKind = iota
	KindProperty
)

func (k MemberKind) String() string {
	if k == KindProperty {
		return "property"
	}
	return "function"
}

// Param is one parameter of a function member.
type Param struct {
	Label string // external label; "" when absent, Wildcard when suppressed
	Name  string // internal name
	Type  string
}

// Member is one function or property of an interface.
type Member struct {
	Name    string
	Kind    MemberKind
	Params  []Param
	Returns string
}

// Interface is a named contract: ordered members plus ordered inherited keys.
type Interface struct {
	Key      string
	Members  []Member
	Inherits []string
	Imports  []string // sorted set
	Origin   string   // source unit that declared it, "" when unknown
	Public   bool
}

// Source is one parsed input unit and the interfaces it declared.
type Source struct {
	Origin     string
	Interfaces []Interface
}

// Identity is the canonical (name, params) key of a member.
type Identity string

// Identity renders the member as name(label internal, ...). Types are not
// part of the identity, so members that differ only by type collide.
func (m Member) Identity() Identity {
	var b strings.Builder
	b.WriteString(m.Name)
	if m.Kind == KindProperty {
		return Identity(b.String())
	}
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Label != "" {
			b.WriteString(p.Label)
			b.WriteByte(' ')
		}
		b.WriteString(p.Name)
	}
	b.WriteByte(')')
	return Identity(b.String())
}

// Descriptor is the (name, labels) pair used to disambiguate overloads.
type Descriptor struct {
	Name   string
	Labels []string
}

// Descriptor picks, per parameter, the external label unless it is absent
// or the wildcard, in which case the internal name is used.
func (m Member) Descriptor() Descriptor {
	labels := make([]string, len(m.Params))
	for i, p := range m.Params {
		if p.Label != "" && p.Label != Wildcard {
			labels[i] = p.Label
		} else {
			labels[i] = p.Name
		}
	}
	return Descriptor{Name: m.Name, Labels: labels}
}

// HasInherit reports whether key is listed in the interface's inherits.
func (i Interface) HasInherit(key string) bool {
	return slices.Contains(i.Inherits, key)
}

// Clone returns a deep copy whose slices can be mutated independently.
func (i Interface) Clone() Interface {
	out := i
	out.Members = slices.Clone(i.Members)
	for j := range out.Members {
		out.Members[j].Params = slices.Clone(out.Members[j].Params)
	}
	out.Inherits = slices.Clone(i.Inherits)
	out.Imports = slices.Clone(i.Imports)
	return out
}

// UnionImports merges import sets into a sorted, de-duplicated slice.
// Blank entries are dropped.
func UnionImports(sets ...[]string) []string {
	var out []string
	for _, set := range sets {
		for _, imp := range set {
			imp = strings.TrimSpace(imp)
			if imp == "" {
				continue
			}
			out = append(out, imp)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}
