package diagram

import (
	"fmt"
	"path"
	"strings"

	"github.com/olehluchkiv/ifacegen/internal/decl"
	"github.com/olehluchkiv/ifacegen/internal/pipeline"
)

// DiagramOptions controls Mermaid diagram generation.
type DiagramOptions struct {
	MaxMethodsPerBox int  // default 5, 0 means unlimited
	IncludeInit      bool // include %%{init:}%% directive (for standalone .mmd files)
}

// DefaultDiagramOptions returns sensible defaults for diagram generation.
func DefaultDiagramOptions() DiagramOptions {
	return DiagramOptions{MaxMethodsPerBox: 5}
}

// GenerateMermaid produces a Mermaid classDiagram of the merged interfaces.
// Each box lists the disambiguated member identifiers; an edge is drawn
// from an interface to every direct parent that is also in the output.
func GenerateMermaid(out *pipeline.Output, opts DiagramOptions) string {
	var b strings.Builder

	present := make(map[string]bool, len(out.Entries))
	for _, e := range out.Entries {
		present[e.Interface.Key] = true
	}

	// Header + style definitions.
	if opts.IncludeInit {
		b.WriteString("%%{init: {'theme': 'base', 'themeVariables': {'primaryColor': '#ffffff', 'primaryBorderColor': '#cccccc', 'primaryTextColor': '#000000', 'lineColor': '#555555'}}%%\n")
	}
	b.WriteString("classDiagram")
	if len(out.Entries) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString("    direction LR\n")
	b.WriteString("    classDef interfaceStyle fill:#2374ab,stroke:#1a5a8a,color:#fff,stroke-width:2px,font-weight:bold\n")
	b.WriteString("    classDef privateStyle fill:#8a8a8a,stroke:#6a6a6a,color:#fff,stroke-width:2px")

	for _, e := range out.Entries {
		b.WriteString("\n")
		writeInterfaceBlock(&b, e, opts)
	}

	var relations []string
	for _, e := range out.Entries {
		for _, parent := range e.Interface.Inherits {
			if present[parent] {
				relations = append(relations, relation(e.Interface.Key, parent))
			}
		}
	}
	if len(relations) > 0 {
		b.WriteString("\n")
	}
	for _, rel := range relations {
		b.WriteString("\n")
		b.WriteString(rel)
	}

	// Style assignments section.
	b.WriteString("\n")
	for _, e := range out.Entries {
		style := "interfaceStyle"
		if !e.Interface.Public {
			style = "privateStyle"
		}
		b.WriteString(fmt.Sprintf("\n    cssClass \"%s\" %s", NodeID(e.Interface.Key), style))
	}

	return b.String()
}

// SanitizeSignature removes characters in method signatures that break Mermaid syntax.
// Mermaid treats {}, <>, and ~ as special in class diagram labels.
// Uses only ASCII-safe replacements that work in both mmdc CLI and browser Mermaid.js.
func SanitizeSignature(sig string) string {
	// Replace <-chan with chan; Mermaid can't handle the direction indicator.
	sig = strings.ReplaceAll(sig, "<-chan", "chan")
	// Replace interface{} with "any" BEFORE stripping braces. Bare "interface"
	// is a reserved keyword in browser Mermaid.js (<<interface>> tag parsing).
	sig = strings.ReplaceAll(sig, "interface{}", "any")
	// Strip remaining empty braces: empty type literals like struct{}, map[K]struct{}.
	sig = strings.ReplaceAll(sig, "{}", "")
	// Generic angle brackets become Mermaid's ~T~; arrows are kept.
	sig = strings.NewReplacer("->", "->", "<", "~", ">", "~").Replace(sig)
	return sig
}

// sanitizeID replaces /, ., - with _ in node identifiers.
func sanitizeID(s string) string {
	r := strings.NewReplacer("/", "_", ".", "_", "-", "_")
	return r.Replace(s)
}

// NodeID builds a sanitized node ID from an interface key. Keys qualified
// by an import path keep only the last path element as prefix.
func NodeID(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return sanitizeID(path.Base(key[:i]) + "_" + key[i+1:])
	}
	return sanitizeID(key)
}

// writeInterfaceBlock writes a Mermaid class block for an interface.
func writeInterfaceBlock(b *strings.Builder, e pipeline.Entry, opts DiagramOptions) {
	id := NodeID(e.Interface.Key)
	b.WriteString(fmt.Sprintf("    class %s {\n", id))
	b.WriteString("        <<interface>>\n")
	if e.Interface.Origin != "" {
		b.WriteString("        %% file: " + e.Interface.Origin + "\n")
	}
	writeMemberLines(b, e, opts)
	b.WriteString("    }")
}

// writeMemberLines writes member lines with optional truncation.
func writeMemberLines(b *strings.Builder, e pipeline.Entry, opts DiagramOptions) {
	members := e.Interface.Members
	limit := len(members)
	truncated := false
	if opts.MaxMethodsPerBox > 0 && limit > opts.MaxMethodsPerBox {
		limit = opts.MaxMethodsPerBox
		truncated = true
	}

	for i := range limit {
		b.WriteString(fmt.Sprintf("        +%s\n", SanitizeSignature(memberLine(e.Names.Name(i), members[i]))))
	}
	if truncated {
		b.WriteString("        ...\n")
	}
}

func memberLine(identifier string, m decl.Member) string {
	if m.Kind == decl.KindProperty {
		if m.Returns == "" {
			return identifier
		}
		return identifier + " " + m.Returns
	}
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	line := identifier + "(" + strings.Join(types, ", ") + ")"
	if m.Returns != "" {
		line += " " + m.Returns
	}
	return line
}

func relation(child, parent string) string {
	return fmt.Sprintf("    %s --|> %s", NodeID(child), NodeID(parent))
}
