package web

import (
	"golang.org/x/net/html"
)

// Anchor holds the attributes of an `a href` element that the media
// resolvers care about.
type Anchor struct {
	Href  string
	Style string
}

// Walk applies fn to node and each of its descendants.
func Walk(node *html.Node, fn func(n *html.Node)) {
	var iter func(n *html.Node)
	iter = func(n *html.Node) {
		fn(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			iter(c)
		}
	}

	iter(node)
}

// attrVal returns the value of the named attribute, or the empty string if
// the node lacks it.
func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

// Anchors returns every `a` element in the document that carries a
// non-empty href.
func Anchors(doc *html.Node) []Anchor {
	var anchors []Anchor

	Walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}

		href := attrVal(n, "href")
		if href == "" {
			return
		}

		anchors = append(anchors, Anchor{
			Href:  href,
			Style: attrVal(n, "style"),
		})
	})

	return anchors
}

// ImageSources returns the src of every `img` element in the document.
func ImageSources(doc *html.Node) []string {
	var urls []string

	Walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "img" {
			return
		}

		if src := attrVal(n, "src"); src != "" {
			urls = append(urls, src)
		}
	})

	return urls
}
