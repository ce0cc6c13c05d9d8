package translate

import (
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/dlclark/regexp2"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// AutoLanguage asks DetectLanguage to pick the source language.
const AutoLanguage = "auto"

// DisplayName expands a BCP 47 code such as "id" or "pt-BR" to its English
// name. Anything that does not parse is returned unchanged so free-form labels
// like "Brazilian Portuguese" still work.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// DetectLanguage returns the ISO 639-1 code most lines are written in, or ""
// when nothing could be detected. Markup is stripped before detection.
func DetectLanguage(texts []string) string {
	counts := make(map[string]int)
	for _, text := range texts {
		text = stripTags(text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		code := whatlanggo.DetectLang(text).Iso6391()
		if code == "" {
			continue
		}
		counts[code]++
	}
	if len(counts) == 0 {
		return ""
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})
	return codes[0]
}

func stripTags(text string) string {
	for _, re := range []*regexp2.Regexp{htmlTagRegex, assTagRegex} {
		if out, err := re.Replace(text, " ", -1, -1); err == nil {
			text = out
		}
	}
	return text
}
