package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

func TestParseJSONBareReply(t *testing.T) {
	var words []lesson.VocabWord
	err := parseJSON(`[{"dutch":"fiets","english":"bicycle"}]`, &words)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "fiets", words[0].Dutch)
}

func TestParseJSONFencedReply(t *testing.T) {
	reply := "Here you go:\n```json\n{\"feedback\":\"Nice!\",\"corrected\":\"\",\"score\":\"good\"}\n```\nLet me know!"
	var eval lesson.Evaluation
	require.NoError(t, parseJSON(reply, &eval))
	assert.Equal(t, "Nice!", eval.Feedback)
	assert.Equal(t, "good", eval.Score)
}

func TestParseJSONFenceWithoutLanguage(t *testing.T) {
	reply := "```\n[{\"dutch\":\"weer\",\"english\":\"weather\"}]\n```"
	var words []lesson.VocabWord
	require.NoError(t, parseJSON(reply, &words))
	require.Len(t, words, 1)
}

func TestParseJSONMalformed(t *testing.T) {
	var eval lesson.Evaluation
	err := parseJSON("Sorry, I cannot help with that.", &eval)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed model reply")
}

func TestSanitizeQuestions(t *testing.T) {
	in := []lesson.Question{
		{Question: "Goede vraag?", Options: []string{"a", "b", "c"}, Correct: " b "},
		{Question: "", Options: []string{"a", "b"}, Correct: "A"},
		{Question: "Letter buiten bereik?", Options: []string{"a", "b"}, Correct: "C"},
		{Question: "Te veel opties?", Options: []string{"a", "b", "c", "d"}, Correct: "A"},
		{Question: "Ook goed?", Options: []string{"a", "b", "c"}, Correct: "A"},
		{Question: "Te veel?", Options: []string{"a", "b", "c"}, Correct: "C"},
	}
	out := sanitizeQuestions(in, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "B", out[0].Correct)
	assert.Equal(t, "Ook goed?", out[1].Question)
}
