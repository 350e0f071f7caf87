// Package imagespec implements the declarative image-specification
// document (spec §4.I): an ordered key/value text format describing an
// output path and a path-rewrite rule set. It is the only
// configuration surface the core recognizes (spec §5.3, §6).
package imagespec

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xdvdfs-go/xdvdfs/internal/rewrite"
	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
	"gopkg.in/yaml.v3"
)

// MapRule is one ordered entry of a Spec's map_rules section. A
// document key with a leading "!" (per spec §4.I/§6) is parsed as an
// exclusion: Glob holds the pattern without the "!", Exclude is set,
// and the Template is meaningless (and ignored) in that case.
type MapRule struct {
	Glob     string
	Template string
	Exclude  bool
}

// Spec is a parsed image specification document.
type Spec struct {
	Output   string
	MapRules []MapRule
}

// Parse decodes an image specification document. It uses yaml.Node
// rather than a plain Unmarshal into a map so that map_rules'
// document order survives — first-match-wins (spec §4.H) makes that
// order semantically load-bearing, and Go maps do not preserve it.
func Parse(data []byte) (*Spec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, xdvdfserr.Wrap(err, "imagespec: parsing document")
	}
	if len(doc.Content) == 0 {
		return &Spec{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, xdvdfserr.Errorf("imagespec: document root is not a mapping")
	}

	spec := &Spec{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "metadata":
			out, err := parseMetadata(val)
			if err != nil {
				return nil, err
			}
			spec.Output = out
		case "map_rules":
			rules, err := parseMapRules(val)
			if err != nil {
				return nil, err
			}
			spec.MapRules = rules
		}
	}
	return spec, nil
}

func parseMetadata(n *yaml.Node) (string, error) {
	if n.Kind != yaml.MappingNode {
		return "", xdvdfserr.Errorf("imagespec: metadata is not a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "output" {
			return n.Content[i+1].Value, nil
		}
	}
	return "", nil
}

func parseMapRules(n *yaml.Node) ([]MapRule, error) {
	if n.Kind != yaml.MappingNode {
		return nil, xdvdfserr.Errorf("imagespec: map_rules is not a mapping")
	}
	var out []MapRule
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1].Value
		if strings.HasPrefix(key, "!") {
			out = append(out, MapRule{Glob: strings.TrimPrefix(key, "!"), Exclude: true})
		} else {
			out = append(out, MapRule{Glob: key, Template: val})
		}
	}
	return out, nil
}

// Serialize renders spec back to the document form Parse accepts,
// preserving map_rules order.
func Serialize(spec *Spec) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	if spec.Output != "" {
		metaKey := scalarNode("metadata")
		metaVal := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
			scalarNode("output"), scalarNode(spec.Output),
		}}
		root.Content = append(root.Content, metaKey, metaVal)
	}

	rulesKey := scalarNode("map_rules")
	rulesVal := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, r := range spec.MapRules {
		if r.Exclude {
			rulesVal.Content = append(rulesVal.Content, scalarNode("!"+r.Glob), scalarNode("exclude"))
		} else {
			rulesVal.Content = append(rulesVal.Content, scalarNode(r.Glob), scalarNode(r.Template))
		}
	}
	root.Content = append(root.Content, rulesKey, rulesVal)

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	return yaml.Marshal(doc)
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// ToRules converts a Spec's map_rules into the ordered rewrite.Rule
// list the path-rewrite engine consumes.
func ToRules(spec *Spec) []rewrite.Rule {
	rules := make([]rewrite.Rule, 0, len(spec.MapRules))
	for _, r := range spec.MapRules {
		if r.Exclude {
			rules = append(rules, rewrite.ExcludeRule{HostGlob: r.Glob})
		} else {
			rules = append(rules, rewrite.IncludeRule{HostGlob: r.Glob, ImageTemplate: r.Template})
		}
	}
	return rules
}

// FromRules builds a Spec from an explicit rule list and output path,
// the inverse of ToRules — together they satisfy spec §4.I's
// round-trip property between command-line `-m`/`-O` flags and a spec
// document.
func FromRules(output string, rules []rewrite.Rule) *Spec {
	spec := &Spec{Output: output}
	for _, r := range rules {
		switch v := r.(type) {
		case rewrite.IncludeRule:
			spec.MapRules = append(spec.MapRules, MapRule{Glob: v.HostGlob, Template: v.ImageTemplate})
		case rewrite.ExcludeRule:
			spec.MapRules = append(spec.MapRules, MapRule{Glob: v.HostGlob, Exclude: true})
		}
	}
	return spec
}

// ResolveBaseDir picks the directory an image specification's globs
// are evaluated against, honoring spec §4.I's priority: an explicit
// CLI-supplied source directory first, then the spec file's own
// directory, then the process's current working directory.
func ResolveBaseDir(cliSource, specFilePath string) (string, error) {
	if cliSource != "" {
		return cliSource, nil
	}
	if specFilePath != "" {
		return filepath.Dir(specFilePath), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", xdvdfserr.Wrap(err, "imagespec: resolving base directory")
	}
	return cwd, nil
}
