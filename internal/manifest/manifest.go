// Package manifest parses YAML interface manifests into declarations.
//
// A manifest file may hold several YAML documents:
//
//	imports: [Foundation]
//	interfaces:
//	  - name: ErrorReporting
//	    public: true
//	    inherits: [NSObjectProtocol, Reporting]
//	    members:
//	      - func: reportError
//	        params:
//	          - {label: _, name: error, type: Error}
//	          - {label: description, type: String}
//	      - property: title
//	        type: String
package manifest

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	motmedelErrors "github.com/Motmedel/utils_go/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/ifacegen/internal/decl"
)

var (
	ErrEmptyName      = errors.New("interface without name")
	ErrMemberKind     = errors.New("member must set exactly one of func or property")
	ErrEmptyParamName = errors.New("parameter without name or label")
	ErrPropertyParams = errors.New("property cannot take parameters")
)

// Extensions lists the file extensions read as manifests.
var Extensions = []string{".yaml", ".yml"}

type document struct {
	Imports    []string        `yaml:"imports"`
	Interfaces []interfaceSpec `yaml:"interfaces"`
}

type interfaceSpec struct {
	Name     string       `yaml:"name"`
	Public   bool         `yaml:"public"`
	Inherits []string     `yaml:"inherits"`
	Imports  []string     `yaml:"imports"`
	Members  []memberSpec `yaml:"members"`
}

type memberSpec struct {
	Func     string      `yaml:"func"`
	Property string      `yaml:"property"`
	Params   []paramSpec `yaml:"params"`
	Returns  string      `yaml:"returns"`
	Type     string      `yaml:"type"`
}

type paramSpec struct {
	Label string `yaml:"label"`
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
}

// Parse reads every YAML document from r. An empty input yields a source
// with no interfaces.
func Parse(origin string, r io.Reader) (decl.Source, error) {
	src := decl.Source{Origin: origin}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	for {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return decl.Source{}, motmedelErrors.New(fmt.Errorf("yaml decode: %w", err), origin)
		}
		for i, spec := range doc.Interfaces {
			iface, err := spec.toInterface(origin, doc.Imports)
			if err != nil {
				return decl.Source{}, motmedelErrors.NewWithTrace(
					fmt.Errorf("%s: interface #%d: %w", originLabel(origin), i, err),
				)
			}
			src.Interfaces = append(src.Interfaces, iface)
		}
	}

	return src, nil
}

// ParseFile opens path and parses it with the path as origin.
func ParseFile(path string) (decl.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return decl.Source{}, motmedelErrors.NewWithTrace(fmt.Errorf("os open: %w", err))
	}
	defer f.Close()

	return Parse(path, f)
}

// Sources parses each file as it is pulled. Iteration stops after the
// first error, which is yielded with a zero source.
func Sources(files iter.Seq2[string, error]) iter.Seq2[decl.Source, error] {
	return func(yield func(decl.Source, error) bool) {
		for path, err := range files {
			if err != nil {
				yield(decl.Source{}, err)
				return
			}
			src, err := ParseFile(path)
			if !yield(src, err) || err != nil {
				return
			}
		}
	}
}

func (s interfaceSpec) toInterface(origin string, fileImports []string) (decl.Interface, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return decl.Interface{}, ErrEmptyName
	}

	iface := decl.Interface{
		Key:      name,
		Inherits: s.Inherits,
		Imports:  decl.UnionImports(fileImports, s.Imports),
		Origin:   origin,
		Public:   s.Public,
	}
	for j, m := range s.Members {
		member, err := m.toMember()
		if err != nil {
			return decl.Interface{}, fmt.Errorf("%s member #%d: %w", name, j, err)
		}
		iface.Members = append(iface.Members, member)
	}
	return iface, nil
}

func (m memberSpec) toMember() (decl.Member, error) {
	switch {
	case m.Func != "" && m.Property == "":
		member := decl.Member{Name: m.Func, Kind: decl.KindFunction, Returns: m.Returns}
		for _, p := range m.Params {
			param, err := p.toParam()
			if err != nil {
				return decl.Member{}, fmt.Errorf("%s: %w", m.Func, err)
			}
			member.Params = append(member.Params, param)
		}
		return member, nil
	case m.Property != "" && m.Func == "":
		if len(m.Params) > 0 {
			return decl.Member{}, fmt.Errorf("%s: %w", m.Property, ErrPropertyParams)
		}
		return decl.Member{Name: m.Property, Kind: decl.KindProperty, Returns: m.Type}, nil
	default:
		return decl.Member{}, ErrMemberKind
	}
}

// toParam fills a missing internal name from the label, the way a single
// parameter name serves as both.
func (p paramSpec) toParam() (decl.Param, error) {
	name := p.Name
	if name == "" && p.Label != decl.Wildcard {
		name = p.Label
	}
	if name == "" {
		return decl.Param{}, ErrEmptyParamName
	}
	return decl.Param{Label: p.Label, Name: name, Type: p.Type}, nil
}

func originLabel(origin string) string {
	if origin == "" {
		return "<stdin>"
	}
	return origin
}
