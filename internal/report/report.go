// Package report serializes pipeline output for the code emitter.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/ifacegen/internal/pipeline"
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Document is the serialized form of a pipeline run.
type Document struct {
	Interfaces   []Interface   `yaml:"interfaces" json:"interfaces"`
	EmptySources []string      `yaml:"empty_sources,omitempty" json:"empty_sources,omitempty"`
	Replaced     []Replacement `yaml:"replaced,omitempty" json:"replaced,omitempty"`
}

type Interface struct {
	Key      string   `yaml:"key" json:"key"`
	Origin   string   `yaml:"origin,omitempty" json:"origin,omitempty"`
	Public   bool     `yaml:"public" json:"public"`
	Inherits []string `yaml:"inherits,omitempty" json:"inherits,omitempty"`
	Imports  []string `yaml:"imports,omitempty" json:"imports,omitempty"`
	Members  []Member `yaml:"members,omitempty" json:"members,omitempty"`
}

// Member pairs a declared member with its generated identifier.
type Member struct {
	Identifier string  `yaml:"identifier" json:"identifier"`
	Name       string  `yaml:"name" json:"name"`
	Kind       string  `yaml:"kind" json:"kind"`
	Identity   string  `yaml:"identity" json:"identity"`
	Params     []Param `yaml:"params,omitempty" json:"params,omitempty"`
	Returns    string  `yaml:"returns,omitempty" json:"returns,omitempty"`
}

type Param struct {
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type,omitempty" json:"type,omitempty"`
}

type Replacement struct {
	Key            string `yaml:"key" json:"key"`
	Origin         string `yaml:"origin" json:"origin"`
	PreviousOrigin string `yaml:"previous_origin" json:"previous_origin"`
}

// Build converts pipeline output into a Document, keeping entry order.
func Build(out *pipeline.Output) Document {
	doc := Document{EmptySources: out.EmptyOrigins}
	for _, r := range out.Replaced {
		doc.Replaced = append(doc.Replaced, Replacement{
			Key:            r.Key,
			Origin:         r.Origin,
			PreviousOrigin: r.PreviousOrigin,
		})
	}

	doc.Interfaces = make([]Interface, 0, len(out.Entries))
	for _, e := range out.Entries {
		iface := Interface{
			Key:      e.Interface.Key,
			Origin:   e.Interface.Origin,
			Public:   e.Interface.Public,
			Inherits: e.Interface.Inherits,
			Imports:  e.Interface.Imports,
		}
		for i, m := range e.Interface.Members {
			member := Member{
				Identifier: e.Names.Name(i),
				Name:       m.Name,
				Kind:       m.Kind.String(),
				Identity:   string(m.Identity()),
				Returns:    m.Returns,
			}
			for _, p := range m.Params {
				member.Params = append(member.Params, Param(p))
			}
			iface.Members = append(iface.Members, member)
		}
		doc.Interfaces = append(doc.Interfaces, iface)
	}
	return doc
}

// Write renders out to w in the given format.
func Write(w io.Writer, out *pipeline.Output, format string) error {
	doc := Build(out)
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
