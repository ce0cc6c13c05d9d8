package translate

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

var (
	htmlTagRegex = regexp2.MustCompile(`<[^>]+>`, regexp2.None)
	assTagRegex  = regexp2.MustCompile(`\{\\[^}]*\}`, regexp2.None)
)

const (
	htmlTagKind = "HTML"
	assTagKind  = "ASS"
)

// text with its markup swapped for positional placeholders
type Masked struct {
	Text     string
	HTMLTags []string
	ASSTags  []string
}

// Placeholder returns the token standing in for tag i of the given kind.
func Placeholder(kind string, i int) string {
	return fmt.Sprintf("[[%s_TAG_%d]]", kind, i)
}

// Mask replaces inline HTML tags and then ASS override tags with placeholders.
// Override tags are matched against text that already carries HTML
// placeholders, so an override block wrapping an HTML tag captures the
// placeholder rather than the tag.
func Mask(text string) Masked {
	m := Masked{Text: text}
	m.Text, m.HTMLTags = replaceTags(htmlTagRegex, m.Text, htmlTagKind)
	m.Text, m.ASSTags = replaceTags(assTagRegex, m.Text, assTagKind)
	return m
}

func replaceTags(re *regexp2.Regexp, text, kind string) (string, []string) {
	var tags []string
	out, err := re.ReplaceFunc(text, func(match regexp2.Match) string {
		tags = append(tags, match.String())
		return Placeholder(kind, len(tags)-1)
	}, -1, -1)
	if err != nil {
		// only reachable on a match timeout, none is configured
		return text, nil
	}
	return out, tags
}

// Unmask restores tags in ascending order, HTML first. Placeholders the
// translation dropped are simply skipped; unknown ones stay in the text.
func Unmask(text string, htmlTags, assTags []string) string {
	for i, tag := range htmlTags {
		text = strings.ReplaceAll(text, Placeholder(htmlTagKind, i), tag)
	}
	for i, tag := range assTags {
		text = strings.ReplaceAll(text, Placeholder(assTagKind, i), tag)
	}
	return text
}

// Unmask restores this mask's tags into text, usually the translated form of m.Text.
func (m Masked) Unmask(text string) string {
	return Unmask(text, m.HTMLTags, m.ASSTags)
}
