package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockPrompt(t *testing.T) {
	p := BlockPrompt("English", "Indonesian", []string{"[[HTML_TAG_0]]Hi[[HTML_TAG_1]]", "Bye"})

	assert.Equal(t,
		"You are a professional subtitle translator.\n"+
			"Translate exactly from the source language to the target language.\n"+
			"Keep ALL placeholders like [[HTML_TAG_#]] and [[ASS_TAG_#]] unchanged.\n"+
			"DO NOT reorder or merge lines. Return the same number of lines, each starting with '<<LINE i>> ' prefix unchanged.\n",
		p.System,
	)
	assert.Equal(t,
		"Source language: English\nTarget language: Indonesian\n\n"+
			"<<LINE 0>> [[HTML_TAG_0]]Hi[[HTML_TAG_1]]\n"+
			"<<LINE 1>> Bye",
		p.User,
	)
}

func TestLinePrompt(t *testing.T) {
	p := LinePrompt("English", "Japanese", "[[ASS_TAG_0]]Hello")

	assert.Contains(t, p.System, "Return ONLY the translated text.")
	assert.Contains(t, p.System, "Leave placeholders exactly unchanged.")
	assert.NotContains(t, p.System, "<<LINE")
	assert.Equal(t,
		"Source language: English\nTarget language: Japanese\n\nText:\n[[ASS_TAG_0]]Hello",
		p.User,
	)
}

func TestBlockPromptParsesBack(t *testing.T) {
	lines := []string{"one", "two", "three"}
	p := BlockPrompt("en", "id", lines)

	// an echo of the prompt body parses to the original lines
	assert.Equal(t, lines, ParseBlockResponse(p.User, len(lines)))
}
