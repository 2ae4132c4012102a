package vue

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// builtins are tags Vue resolves itself.
var builtins = map[string]bool{
	"component":        true,
	"slot":             true,
	"template":         true,
	"transition":       true,
	"transition-group": true,
	"keep-alive":       true,
	"teleport":         true,
	"suspense":         true,
	"router-view":      true,
	"router-link":      true,
}

type script struct {
	content    []byte
	lineOffset int
	typescript bool
}

// sfc holds the blocks of a single-file component that extraction uses.
type sfc struct {
	scripts []script
	tags    []string // component tags used in the template, first-use order
	err     error
}

// split tokenizes a component file. Tag names are read from the raw token
// text because the tokenizer lowercases them.
func split(content []byte) sfc {
	var (
		out        sfc
		z          = html.NewTokenizer(bytes.NewReader(content))
		offset     int
		template   int
		pending    *script
		seen       = make(map[string]bool)
		scriptOpen bool
	)
	for {
		tt := z.Next()
		// TagName lowercases the token buffer in place.
		raw := append([]byte(nil), z.Raw()...)
		start := offset
		offset += len(raw)

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				out.err = err
			}
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case template > 0:
				if tag == "template" && tt == html.StartTagToken {
					template++
					continue
				}
				if comp := rawTagName(raw); isComponentTag(comp) && !seen[comp] {
					seen[comp] = true
					out.tags = append(out.tags, comp)
				}
			case tag == "template" && tt == html.StartTagToken:
				template = 1
			case tag == "script" && tt == html.StartTagToken:
				pending = &script{typescript: scriptLang(z)}
				scriptOpen = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case template > 0 && tag == "template":
				template--
			case scriptOpen && tag == "script":
				scriptOpen = false
				pending = nil
			}
		case html.TextToken:
			if scriptOpen && pending != nil {
				pending.content = raw
				pending.lineOffset = bytes.Count(content[:start], []byte("\n"))
				out.scripts = append(out.scripts, *pending)
				pending = nil
			}
		}
	}
}

// scriptLang reports whether the current script tag declares TypeScript.
func scriptLang(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "lang" {
			switch strings.ToLower(string(val)) {
			case "ts", "tsx":
				return true
			}
		}
		if !more {
			return false
		}
	}
}

// rawTagName returns the tag name as written in a start tag token.
func rawTagName(raw []byte) string {
	s := strings.TrimPrefix(string(raw), "<")
	if i := strings.IndexAny(s, " \t\r\n/>"); i >= 0 {
		s = s[:i]
	}
	return s
}

// isComponentTag reports whether a template tag names a component rather
// than an HTML element: PascalCase or hyphenated, and not a Vue builtin.
func isComponentTag(name string) bool {
	if name == "" || builtins[strings.ToLower(name)] {
		return false
	}
	if strings.HasPrefix(strings.ToLower(name), "router-") {
		return false
	}
	return strings.Contains(name, "-") || (name[0] >= 'A' && name[0] <= 'Z')
}
