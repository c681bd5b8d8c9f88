package htmlutil

import (
	"bytes"
	"strings"

	"shuassist-backend/pkg/textutil"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && IsSkipped(node) {
		return
	}
	if node.DataAtom == atom.Br {
		buffer.WriteByte(' ')
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// CellText returns the cleaned single line text of a table cell.
func CellText(node *html.Node) string {
	return textutil.CollapseSpace(GetText(node))
}

func getAttr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// IsSkipped reports whether an element never contributes visible text: scripts, styles,
// templates and anything hidden through attributes or inline style.
func IsSkipped(node *html.Node) bool {
	switch node.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
		return true
	case atom.Input:
		kind, _ := getAttr(node, "type")
		return strings.EqualFold(kind, "hidden")
	}
	if _, ok := getAttr(node, "hidden"); ok {
		return true
	}
	if v, ok := getAttr(node, "aria-hidden"); ok && v == "true" {
		return true
	}
	if style, ok := getAttr(node, "style"); ok {
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}

var blockElements = map[atom.Atom]struct{}{
	atom.Address: {}, atom.Article: {}, atom.Aside: {}, atom.Blockquote: {},
	atom.Caption: {}, atom.Dd: {}, atom.Div: {}, atom.Dl: {}, atom.Dt: {},
	atom.Fieldset: {}, atom.Figcaption: {}, atom.Figure: {}, atom.Footer: {},
	atom.Form: {}, atom.H1: {}, atom.H2: {}, atom.H3: {}, atom.H4: {},
	atom.H5: {}, atom.H6: {}, atom.Header: {}, atom.Hr: {}, atom.Li: {},
	atom.Main: {}, atom.Nav: {}, atom.Ol: {}, atom.P: {}, atom.Pre: {},
	atom.Section: {}, atom.Table: {}, atom.Tbody: {}, atom.Thead: {},
	atom.Tfoot: {}, atom.Tr: {}, atom.Ul: {}, atom.Br: {}, atom.Body: {},
}

// IsBlock reports whether the element starts a new line of rendered text.
func IsBlock(node *html.Node) bool {
	_, ok := blockElements[node.DataAtom]
	return ok
}

// TextLines renders the visible text under node into lines, a new line is started at every
// block level element boundary. Cells of the same table row stay on one line separated by a
// space, the way a browser's innerText lays them out.
func TextLines(node *html.Node) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		line := textutil.CollapseSpace(current.String())
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			if IsSkipped(n) {
				return
			}
		}

		block := n.Type == html.ElementNode && IsBlock(n)
		if block {
			flush()
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
			if child.Type == html.ElementNode && (child.DataAtom == atom.Td || child.DataAtom == atom.Th) {
				current.WriteByte(' ')
			}
		}
		if block {
			flush()
		}
	}

	walk(node)
	flush()
	return lines
}
