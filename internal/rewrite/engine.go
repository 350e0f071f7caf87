// Package rewrite implements the path-rewrite engine (spec §4.H): an
// ordered list of include/exclude glob rules that turns a host
// directory tree into the virtual tree the packer will serialize.
package rewrite

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xdvdfs-go/xdvdfs/internal/vtree"
	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
	"github.com/xdvdfs-go/xdvdfs/internal/xlog"
)

// Rule is either an IncludeRule or an ExcludeRule.
type Rule interface {
	glob() string
}

// IncludeRule renders matching host paths to an image path.
type IncludeRule struct {
	HostGlob      string
	ImageTemplate string
}

func (r IncludeRule) glob() string { return r.HostGlob }

// ExcludeRule drops matching host paths.
type ExcludeRule struct {
	HostGlob string
}

func (r ExcludeRule) glob() string { return r.HostGlob }

// Engine is an ordered, compiled rule list.
type Engine struct {
	rules    []Rule
	compiled []*regexp.Regexp
}

// New compiles rules in the order given. First-matching-rule-wins
// (spec §4.H) depends on this order being preserved exactly. Pattern
// syntax is validated against doublestar's dialect before compiling
// our own capture-preserving regexp translation (doublestar decides
// whether a pattern matches, but has no notion of indexed captures,
// so it cannot supply the {N} substitutions).
func New(rules []Rule) (*Engine, error) {
	e := &Engine{rules: rules}
	for _, r := range rules {
		if !doublestar.ValidatePattern(r.glob()) {
			return nil, xdvdfserr.Errorf("rewrite: invalid glob pattern %q", r.glob())
		}
		re, err := compileGlob(r.glob())
		if err != nil {
			return nil, err
		}
		e.compiled = append(e.compiled, re)
	}
	return e, nil
}

// MappedFile is one host file that survived rewriting, with the image
// path it will occupy.
type MappedFile struct {
	ImagePath string
	HostPath  string
	Size      uint32
}

// Apply walks hostRoot, evaluates the rule list against every regular
// file's slash-separated path relative to hostRoot, and returns the
// surviving (image path, host path) pairs. Two files rendering to the
// same image path fail with a CollidingMappingError.
func (e *Engine) Apply(hostRoot string) ([]MappedFile, error) {
	var relPaths []string
	err := filepath.WalkDir(hostRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(hostRoot, path)
		if err != nil {
			return err
		}
		relPaths = append(relPaths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, xdvdfserr.Wrap(err, "rewrite: walking host tree")
	}
	sort.Strings(relPaths)

	seen := map[string]string{} // image path -> host relative path
	var out []MappedFile
	for _, rel := range relPaths {
		imagePath, matched := e.evaluate(rel)
		if !matched {
			continue
		}
		if prior, ok := seen[imagePath]; ok && prior != rel {
			return nil, &xdvdfserr.CollidingMappingError{ImagePath: imagePath}
		}
		seen[imagePath] = rel

		hostPath := filepath.Join(hostRoot, filepath.FromSlash(rel))
		info, err := os.Stat(hostPath)
		if err != nil {
			return nil, xdvdfserr.Wrap(err, "rewrite: stat "+rel)
		}
		out = append(out, MappedFile{ImagePath: imagePath, HostPath: hostPath, Size: uint32(info.Size())})
	}
	return out, nil
}

// evaluate returns (imagePath, true) if rel matches an IncludeRule
// before any other rule, or (_, false) if it matches an ExcludeRule
// first, or if no rule matches at all. Whether a glob matches at all
// is decided by doublestar.Match, the reference implementation of the
// glob dialect spec §4.H specifies; our own regexp translation is
// consulted only for the capture groups doublestar cannot report, and
// only once doublestar has already agreed the pattern matches.
func (e *Engine) evaluate(rel string) (string, bool) {
	for i, rule := range e.rules {
		matched, err := doublestar.Match(rule.glob(), rel)
		if err != nil || !matched {
			continue
		}
		switch r := rule.(type) {
		case IncludeRule:
			m := e.compiled[i].FindStringSubmatch(rel)
			if m == nil {
				xlog.L().Warn("rewrite: doublestar and capture regexp disagree", "pattern", rule.glob(), "path", rel)
				continue
			}
			return renderTemplate(r.ImageTemplate, rel, m[1:]), true
		case ExcludeRule:
			return "", false
		}
	}
	return "", false
}

// BuildTree assembles mapped files into a virtual tree, creating
// directory nodes as needed for each image path's segments. contentFor
// opens the backing content for one mapped file; BuildTree stops and
// propagates the first error it returns.
func BuildTree(mapped []MappedFile, contentFor func(hostPath string, size uint32) (vtree.FileContent, error)) (*vtree.Node, error) {
	root := vtree.NewDir("")
	for _, mf := range mapped {
		segs := splitImagePath(mf.ImagePath)
		if len(segs) == 0 {
			return nil, xdvdfserr.Errorf("rewrite: image path %q resolves to the root itself", mf.ImagePath)
		}
		dir := root
		for _, seg := range segs[:len(segs)-1] {
			dir = dir.EnsureDir(seg)
		}
		leaf := segs[len(segs)-1]
		content, err := contentFor(mf.HostPath, mf.Size)
		if err != nil {
			return nil, err
		}
		dir.AddChild(vtree.NewFile(leaf, 0, content))
	}
	return root, nil
}

func splitImagePath(p string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				out = append(out, p[start:i])
			}
			start = i + 1
		}
	}
	return out
}
