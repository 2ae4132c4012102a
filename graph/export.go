package graph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an export serialization.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatNTriples Format = "ntriples"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	Name        Format
	MIMEType    string
	Extension   string
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Nodes, edges and statistics as one JSON document",
	},
	FormatYAML: {
		Name:        FormatYAML,
		MIMEType:    "application/yaml",
		Extension:   ".yaml",
		Description: "Nodes, edges and statistics as one YAML document",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// FormatForPath picks the format whose extension matches path.
func FormatForPath(path string) (Format, bool) {
	for f, info := range FormatRegistry {
		if strings.HasSuffix(path, info.Extension) {
			return f, true
		}
	}
	if strings.HasSuffix(path, ".yml") {
		return FormatYAML, true
	}
	return "", false
}

// Export writes g to w in format.
func Export(w io.Writer, g Graph, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	case FormatNTriples:
		return writeNTriples(w, g)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Namespaces used in RDF output.
const (
	Namespace     = "https://c360studio.github.io/semgraph/ns#"
	NodeNamespace = "urn:semgraph:node:"
	EdgeNamespace = "urn:semgraph:edge:"

	rdfType   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdDouble = "http://www.w3.org/2001/XMLSchema#double"
	xsdInt    = "http://www.w3.org/2001/XMLSchema#integer"
)

// iri marks an object as a resource rather than a literal.
type iri string

// NodeIRI returns the IRI of a symbol ID. Unresolved targets get one too.
func NodeIRI(id string) string {
	return NodeNamespace + url.PathEscape(id)
}

// EdgeIRI returns the IRI of the edge resource carrying e's properties.
func EdgeIRI(e EdgeRecord) string {
	return EdgeNamespace + url.PathEscape(e.Key())
}

// writeNTriples emits each node with its kind and attributes, a direct
// predicate triple per edge, and an edge resource holding the weights.
func writeNTriples(w io.Writer, g Graph) error {
	bw := bufio.NewWriter(w)
	nt := &ntWriter{w: bw}

	for _, n := range g.Nodes {
		subj := NodeIRI(n.ID)
		nt.triple(subj, rdfType, iri(Namespace+string(n.Kind)))
		nt.triple(subj, Namespace+"name", n.Name)
		nt.triple(subj, Namespace+"language", string(n.Language))
		nt.triple(subj, Namespace+"path", n.Path)
		if n.StartLine > 0 {
			nt.triple(subj, Namespace+"startLine", n.StartLine)
			nt.triple(subj, Namespace+"endLine", n.EndLine)
		}
	}
	for _, e := range g.Edges {
		src, tgt := NodeIRI(e.Source), NodeIRI(e.Target)
		nt.triple(src, Namespace+string(e.Type), iri(tgt))

		subj := EdgeIRI(e)
		nt.triple(subj, rdfType, iri(Namespace+"Edge"))
		nt.triple(subj, Namespace+"source", iri(src))
		nt.triple(subj, Namespace+"target", iri(tgt))
		nt.triple(subj, Namespace+"relation", string(e.Type))
		nt.triple(subj, Namespace+"weight", e.Weight)
		nt.triple(subj, Namespace+"importance", string(e.Importance))
		nt.triple(subj, Namespace+"structuralWeight", e.Structural)
		nt.triple(subj, Namespace+"functionalWeight", e.Functional)
		nt.triple(subj, Namespace+"centralityWeight", e.Centrality)
		nt.triple(subj, Namespace+"depthWeight", e.Depth)
	}
	if nt.err != nil {
		return nt.err
	}
	return bw.Flush()
}

type ntWriter struct {
	w   io.Writer
	err error
}

func (n *ntWriter) triple(subject, predicate string, object any) {
	if n.err != nil {
		return
	}
	_, n.err = fmt.Fprintf(n.w, "<%s> <%s> %s .\n", subject, predicate, formatObject(object))
}

func formatObject(obj any) string {
	switch v := obj.(type) {
	case iri:
		return fmt.Sprintf("<%s>", string(v))
	case string:
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int:
		return fmt.Sprintf("\"%d\"^^<%s>", v, xsdInt)
	case float64:
		return fmt.Sprintf("\"%g\"^^<%s>", v, xsdDouble)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

func escapeString(s string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	).Replace(s)
}
