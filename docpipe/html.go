// CLAUDE:SUMMARY DOM helpers: title extraction, hidden-element detection, heading-boundary sectionizing.
package docpipe

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0[^1-9]`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0[^.]`),
}

func hasHiddenStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "style" {
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

// findTitle extracts the <title> text from a raw document, falling back
// to the first heading. Empty string when neither exists.
func findTitle(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	if t := findNodeText(doc, atom.Title); t != "" {
		return t
	}
	for _, h := range []atom.Atom{atom.H1, atom.H2} {
		if t := findNodeText(doc, h); t != "" {
			return t
		}
	}
	return ""
}

func findNodeText(n *html.Node, a atom.Atom) string {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return strings.TrimSpace(collectText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findNodeText(c, a); t != "" {
			return t
		}
	}
	return ""
}

// collectText extracts all visible text from a node subtree.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
			if hasHiddenStyle(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// section is a heading-delimited slice of the document: the heading text
// and the HTML of everything up to the next heading.
type section struct {
	title string
	html  string
}

// sectionize splits an HTML document at heading boundaries. Content before
// the first heading becomes an untitled leading section. Headings are
// consumed as section titles, not rendered into bodies.
func sectionize(clean string) ([]section, error) {
	doc, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return nil, err
	}

	var sections []section
	var buf strings.Builder
	title := ""

	flush := func() {
		body := strings.TrimSpace(buf.String())
		if body != "" || title != "" {
			sections = append(sections, section{title: title, html: body})
		}
		buf.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
				return
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				flush()
				title = strings.TrimSpace(collectText(n))
				return
			}
			if hasHiddenStyle(n) {
				return
			}
			// Structural containers are traversed; every other element is
			// rendered wholesale so inline markup survives into markdown.
			switch n.DataAtom {
			case atom.Html, atom.Body, atom.Div, atom.Section, atom.Article, atom.Main, atom.Aside:
			default:
				html.Render(&buf, n)
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString("<p>")
				buf.WriteString(html.EscapeString(text))
				buf.WriteString("</p>")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()
	return sections, nil
}
