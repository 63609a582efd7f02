package ods

import (
	"strconv"
	"strings"
)

// paragraphContent encodes text as the mixed content of a text:p element.
//
// ODF collapses white space inside paragraphs, so only a single space between
// two visible characters is written literally. Every other space becomes
// text:s (with text:c for runs), tabs become text:tab and line breaks
// ("\r\n", "\r" or "\n") become text:line-break.
func paragraphContent(text string) []interface{} {
	var (
		nodes []interface{}
		run   strings.Builder
	)

	flush := func() {
		if run.Len() > 0 {
			nodes = append(nodes, xmlText(run.String()))
			run.Reset()
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case ' ':
			j := i
			for j < len(runes) && runes[j] == ' ' {
				j++
			}
			n := j - i

			if i > 0 && isVisible(runes[i-1]) && j < len(runes) && isVisible(runes[j]) {
				run.WriteByte(' ')
				n--
			}
			if n > 0 {
				flush()
				el := newElement("text:s")
				if n > 1 {
					el.attrs = append(el.attrs, xmlAttr{name: "text:c", value: strconv.Itoa(n)})
				}
				nodes = append(nodes, el)
			}
			i = j - 1

		case '\t':
			flush()
			nodes = append(nodes, newElement("text:tab"))

		case '\r', '\n':
			if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			flush()
			nodes = append(nodes, newElement("text:line-break"))

		default:
			run.WriteRune(r)
		}
	}
	flush()

	return nodes
}

func isVisible(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n':
		return false
	}
	return true
}

// paragraphBuilder collects the text of a text:p element while it is being
// read, collapsing white space in character data the way ODF consumers do.
type paragraphBuilder struct {
	b         strings.Builder
	lastSpace bool
}

func (p *paragraphBuilder) chars(data string) {
	for _, r := range data {
		if !isVisible(r) {
			if p.lastSpace {
				continue
			}
			p.b.WriteByte(' ')
			p.lastSpace = true
			continue
		}
		p.b.WriteRune(r)
		p.lastSpace = false
	}
}

func (p *paragraphBuilder) spaces(n int) {
	p.b.WriteString(strings.Repeat(" ", n))
	p.lastSpace = false
}

func (p *paragraphBuilder) literal(s string) {
	p.b.WriteString(s)
	p.lastSpace = false
}

func (p *paragraphBuilder) String() string {
	return p.b.String()
}
