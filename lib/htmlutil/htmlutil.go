package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("invtracker.lib.htmlutil")

// GetText concatenates all the text nodes under node.
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
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Normalize strips non-printable characters, trims the ends and collapses
// runs of whitespace into a single space.
func Normalize(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text returns the normalized text of the first node in sel, or "" if sel is empty.
func Text(ctx context.Context, sel *goquery.Selection) string {
	_, span := tracer.Start(ctx, "Text")
	defer span.End()

	if len(sel.Nodes) == 0 {
		return ""
	}
	text := Normalize(GetText(sel.Nodes[0]))
	span.AddEvent("text", trace.WithAttributes(attribute.String("text", text)))
	return text
}

// OuterHTML renders every node in sel, errors are swallowed into an empty
// string since the output is only used for pattern matching.
func OuterHTML(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		err := html.Render(&buffer, n)
		if err != nil {
			return ""
		}
	}
	return buffer.String()
}
