package translate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatCall struct {
	system string
	user   string
}

// answers with a scripted function and records every request
type fakeChat struct {
	respond func(call int, system, user string) (string, error)
	calls   []chatCall
}

func (f *fakeChat) Complete(_ context.Context, system, user string) (string, error) {
	f.calls = append(f.calls, chatCall{system: system, user: user})
	return f.respond(len(f.calls), system, user)
}

// upper-cases every "<<LINE i>> text" line of a block prompt
func upperBlock(_ int, _ string, user string) (string, error) {
	var out []string
	for _, line := range strings.Split(user, "\n") {
		if strings.HasPrefix(line, "<<LINE") {
			out = append(out, strings.ToUpper(line))
		}
	}
	return strings.Join(out, "\n"), nil
}

// upper-cases the text after "Text:\n" of a line prompt
func upperLine(_ int, _ string, user string) (string, error) {
	_, text, _ := strings.Cut(user, "Text:\n")
	return "  " + strings.ToUpper(text) + "\n", nil
}

func newTestTranslator(t *testing.T, chat ChatClient, opts ...RetryOption) *Translator {
	t.Helper()
	opts = append([]RetryOption{WithSleeper(func(time.Duration) {})}, opts...)
	tr, err := NewTranslator(chat, Options{
		SourceLanguage: "English",
		TargetLanguage: "Indonesian",
		MaxRetries:     3,
		Backoff:        time.Second,
	}, nil, opts...)
	require.NoError(t, err)
	return tr
}

func TestTranslateBlockRestoresTagsPerLine(t *testing.T) {
	chat := &fakeChat{respond: upperBlock}
	tr := newTestTranslator(t, chat)

	out, err := tr.TranslateBlock(context.Background(), []string{
		"<i>hello</i>",
		`{\an8}top <b>bold</b>`,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"<i>HELLO</i>", `{\an8}TOP <b>BOLD</b>`}, out)
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0].user, "<<LINE 0>> [[HTML_TAG_0]]hello[[HTML_TAG_1]]")
	// line 1 has its own table starting at 0
	assert.Contains(t, chat.calls[0].user, "<<LINE 1>> [[ASS_TAG_0]]top [[HTML_TAG_0]]bold[[HTML_TAG_1]]")
}

func TestTranslateBlockKeepsLineCount(t *testing.T) {
	chat := &fakeChat{respond: func(int, string, string) (string, error) {
		return "Here you go:\n<<LINE 2>> tiga", nil
	}}
	tr := newTestTranslator(t, chat)

	out, err := tr.TranslateBlock(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "tiga"}, out)
}

func TestTranslateBlockRetriesRateLimit(t *testing.T) {
	chat := &fakeChat{respond: func(call int, system, user string) (string, error) {
		if call == 1 {
			return "", errRateLimited
		}
		return upperBlock(call, system, user)
	}}
	tr := newTestTranslator(t, chat)

	out, err := tr.TranslateBlock(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, out)
	require.Len(t, chat.calls, 2)
	assert.Equal(t, chat.calls[0], chat.calls[1])
}

func TestTranslateBlockFatalError(t *testing.T) {
	chat := &fakeChat{respond: func(int, string, string) (string, error) {
		return "", errAuth
	}}
	tr := newTestTranslator(t, chat)

	_, err := tr.TranslateBlock(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, errAuth)
	assert.Len(t, chat.calls, 1)
}

func TestTranslateLines(t *testing.T) {
	chat := &fakeChat{respond: upperLine}
	tr := newTestTranslator(t, chat)

	out, err := tr.Translate(context.Background(), ModeLine, []string{"<i>one</i>", "two"})
	require.NoError(t, err)

	// the completion is trimmed and unmasked with the line's own table
	assert.Equal(t, []string{"<i>ONE</i>", "TWO"}, out)
	require.Len(t, chat.calls, 2)
	assert.True(t, strings.HasSuffix(chat.calls[0].user, "Text:\n[[HTML_TAG_0]]one[[HTML_TAG_1]]"))
	assert.NotContains(t, chat.calls[1].user, "<<LINE")
}

func TestTranslateLinesFirstErrorFailsBlock(t *testing.T) {
	chat := &fakeChat{respond: func(call int, system, user string) (string, error) {
		if call == 2 {
			return "", errAuth
		}
		return upperLine(call, system, user)
	}}
	tr := newTestTranslator(t, chat)

	_, err := tr.TranslateLines(context.Background(), []string{"one", "two", "three"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errAuth)
	assert.Contains(t, err.Error(), "line 1")
	assert.Len(t, chat.calls, 2)
}

func TestTranslateDispatch(t *testing.T) {
	chat := &fakeChat{respond: upperBlock}
	tr := newTestTranslator(t, chat)

	out, err := tr.Translate(context.Background(), ModeBlock, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, out)
	assert.Len(t, chat.calls, 1)

	_, err = tr.Translate(context.Background(), Mode("paragraph"), []string{"x"})
	assert.Error(t, err)
}

func TestNewTranslatorValidation(t *testing.T) {
	chat := &fakeChat{respond: upperBlock}

	_, err := NewTranslator(nil, Options{TargetLanguage: "id", Backoff: time.Second}, nil)
	assert.Error(t, err)

	_, err = NewTranslator(chat, Options{Backoff: time.Second}, nil)
	assert.Error(t, err)

	_, err = NewTranslator(chat, Options{TargetLanguage: "id"}, nil)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("line")
	require.NoError(t, err)
	assert.Equal(t, ModeLine, m)

	_, err = ParseMode("Block")
	assert.Error(t, err)
}
