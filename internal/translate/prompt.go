package translate

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
)

// system and user content for one chat completion
type Prompt struct {
	System string
	User   string
}

const linePrefix = "<<LINE"

var blockSystemPrompt = heredoc.Doc(`
	You are a professional subtitle translator.
	Translate exactly from the source language to the target language.
	Keep ALL placeholders like [[HTML_TAG_#]] and [[ASS_TAG_#]] unchanged.
	DO NOT reorder or merge lines. Return the same number of lines, each starting with '<<LINE i>> ' prefix unchanged.
`)

var lineSystemPrompt = strings.Join([]string{
	"You are a professional subtitle translator.",
	"Translate user-provided text exactly from the source language to the target language.",
	"Do NOT add or remove lines.",
	"Do NOT merge or split content.",
	"The text may contain placeholders like [[HTML_TAG_0]] or [[ASS_TAG_0]].",
	"Leave placeholders exactly unchanged.",
	"Return ONLY the translated text.",
}, " ")

// BlockPrompt renders every masked line as "<<LINE i>> text", one per line.
func BlockPrompt(source, target string, masked []string) Prompt {
	rendered := make([]string, len(masked))
	for i, line := range masked {
		rendered[i] = fmt.Sprintf("%s %d>> %s", linePrefix, i, line)
	}

	return Prompt{
		System: blockSystemPrompt,
		User:   languageHeader(source, target) + strings.Join(rendered, "\n"),
	}
}

func LinePrompt(source, target, masked string) Prompt {
	return Prompt{
		System: lineSystemPrompt,
		User:   languageHeader(source, target) + "Text:\n" + masked,
	}
}

func languageHeader(source, target string) string {
	return fmt.Sprintf("Source language: %s\nTarget language: %s\n\n", source, target)
}
