package markdown

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns heading text into an anchor id.
//
// Letters of any script, digits, '-' and '_' are kept; spaces become '-';
// everything else is dropped. "Что такое React?" becomes "что-такое-react".
func Slugify(s string) string {
	s = cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// slugIDs implements goldmark's parser.IDs with Slugify and per-document dedupe.
type slugIDs struct {
	seen map[string]int
}

func newSlugIDs() *slugIDs {
	return &slugIDs{seen: map[string]int{}}
}

func (s *slugIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	base := Slugify(string(value))
	if base == "" {
		base = "heading"
	}
	id := base
	if n, ok := s.seen[base]; ok {
		for {
			n++
			id = base + "-" + strconv.Itoa(n)
			if _, taken := s.seen[id]; !taken {
				break
			}
		}
		s.seen[base] = n
	}
	s.seen[id] = 0
	return []byte(id)
}

func (s *slugIDs) Put(value []byte) {
	s.seen[string(value)] = 0
}
