package rewrite

import (
	"regexp"
	"strings"

	"github.com/xdvdfs-go/xdvdfs/internal/xdvdfserr"
)

// compileGlob translates a host glob (spec §4.H: `*` within a segment,
// `**` across segments, `{a,b,c}` alternation, `?` a single char) into
// an anchored regexp whose capturing groups are, left to right, the
// `*`/`**`/alternation tokens in the order they appear in the
// pattern. Capture group N (1-based) is exactly the substitution
// `{N}` refers to when rendering an image_template; regexp numbers its
// groups by position of the opening paren, which is already
// left-to-right, so no separate bookkeeping is needed.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var out strings.Builder
	out.WriteString("^")
	i := 0
	for i < len(pattern) {
		switch {
		case strings.HasPrefix(pattern[i:], "**"):
			out.WriteString("(.*)")
			i += 2
		case pattern[i] == '*':
			out.WriteString("([^/]*)")
			i++
		case pattern[i] == '?':
			out.WriteString("([^/])")
			i++
		case pattern[i] == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return nil, xdvdfserr.Errorf("rewrite: unterminated alternation in glob %q", pattern)
			}
			alts := strings.Split(pattern[i+1:i+end], ",")
			for k, a := range alts {
				alts[k] = regexp.QuoteMeta(a)
			}
			out.WriteString("(" + strings.Join(alts, "|") + ")")
			i += end + 1
		default:
			j := i
			for j < len(pattern) && pattern[j] != '*' && pattern[j] != '?' && pattern[j] != '{' {
				j++
			}
			out.WriteString(regexp.QuoteMeta(pattern[i:j]))
			i = j
		}
	}
	out.WriteString("$")
	re, err := regexp.Compile(out.String())
	if err != nil {
		return nil, xdvdfserr.Wrapf(err, "rewrite: compiling glob %q", pattern)
	}
	return re, nil
}

// renderTemplate substitutes `{0}` (the whole matched relative path)
// and `{1}`, `{2}`, … (captures, left to right) into an image_template.
var templateToken = regexp.MustCompile(`\{(\d+)\}`)

func renderTemplate(template, wholeMatch string, captures []string) string {
	return templateToken.ReplaceAllStringFunc(template, func(tok string) string {
		n := templateToken.FindStringSubmatch(tok)[1]
		if n == "0" {
			return wholeMatch
		}
		idx := 0
		for _, c := range n {
			idx = idx*10 + int(c-'0')
		}
		if idx-1 < 0 || idx-1 >= len(captures) {
			return ""
		}
		return captures[idx-1]
	})
}
