package markdown

import (
	"strconv"
	"strings"
)

const (
	sidenoteOpen  = "(:sidenote"
	sidenoteClose = ":sidenote)"
)

// RewriteSidenotes expands every "(:sidenote BODY :sidenote)" marker in doc
// into a margin-toggle label, a checkbox, and a marginnote span holding BODY
// verbatim. Ids are mn-1, mn-2, ... in the order markers are consumed.
//
// Markers do not nest: the first closing marker after an opening one ends
// the note. If BODY itself contains an opening marker, that marker is paired
// with the next closing marker later in the document, which is what a
// rescan of the rewritten document from the start would produce. An opening
// marker with no closing marker after it is left as plain text.
func RewriteSidenotes(doc string) string {
	if !strings.Contains(doc, sidenoteOpen) {
		return doc
	}

	var out strings.Builder
	out.Grow(len(doc))
	sc := noteScanner{rest: doc}
	n := 0
	for {
		before, body, nested, ok := sc.next()
		if !ok {
			break
		}
		n++
		out.WriteString(before)
		writeNoteHead(&out, "mn-"+strconv.Itoa(n))
		if nested {
			// The body is still in the scan; its tail follows it there.
			continue
		}
		out.WriteString(body)
		out.WriteString(noteTail)
	}
	out.WriteString(sc.rest)
	return out.String()
}

// CountSidenotes reports how many notes RewriteSidenotes would generate for doc.
func CountSidenotes(doc string) int {
	sc := noteScanner{rest: doc}
	n := 0
	for {
		if _, _, _, ok := sc.next(); !ok {
			return n
		}
		n++
	}
}

// noteScanner pairs sidenote markers left to right. rest holds the text not
// yet consumed.
type noteScanner struct {
	rest string
}

// next finds the next complete marker pair. before is the text ahead of the
// opening marker. When the body itself holds an opening marker, nested is
// true and the body plus the note tail are pushed back into rest so that
// marker can pair with a later closing one.
func (s *noteScanner) next() (before, body string, nested, ok bool) {
	start := strings.Index(s.rest, sidenoteOpen)
	if start < 0 {
		return "", "", false, false
	}
	bodyStart := start + len(sidenoteOpen)
	end := strings.Index(s.rest[bodyStart:], sidenoteClose)
	if end < 0 {
		return "", "", false, false
	}
	before = s.rest[:start]
	body = s.rest[bodyStart : bodyStart+end]
	after := s.rest[bodyStart+end+len(sidenoteClose):]
	if strings.Contains(body, sidenoteOpen) {
		s.rest = body + noteTail + after
		return before, "", true, true
	}
	s.rest = after
	return before, body, false, true
}

const noteTail = "\n</span> "

func writeNoteHead(b *strings.Builder, id string) {
	b.WriteString(`<label for="`)
	b.WriteString(id)
	b.WriteString(`" class="margin-toggle"> &#8853;</label> `)
	b.WriteString("\n")
	b.WriteString(`<input type="checkbox" id="`)
	b.WriteString(id)
	b.WriteString(`" class="margin-toggle"/>`)
	b.WriteString("\n")
	b.WriteString(`<span class="marginnote">`)
	b.WriteString("\n")
}
