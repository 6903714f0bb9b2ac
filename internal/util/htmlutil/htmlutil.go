package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText extracts the text content of a node tree, skipping script and
// style subtrees, so measurements reflect what a reader would see.
func VisibleText(node *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(node)
	return sb.String()
}

// Attr returns the value of the named attribute on a node, or "".
func Attr(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// IsElement checks whether the node is an element with the given tag name.
func IsElement(node *html.Node, tag string) bool {
	return node.Type == html.ElementNode && node.Data == tag
}
