package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelklabo/codic-slack/internal/codic"
)

func str(s string) *string { return &s }

func cands(texts ...*string) []codic.Candidate {
	out := make([]codic.Candidate, 0, len(texts))
	for _, t := range texts {
		out = append(out, codic.Candidate{Text: t})
	}
	return out
}

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		word codic.Word
		want string
	}{
		{
			name: "chosen candidate emphasised and nulls dropped",
			word: codic.Word{
				Text:           "ユーザー登録",
				Successful:     true,
				TranslatedText: "registerUser",
				Candidates:     cands(str("registerUser"), str("userRegister"), nil),
			},
			want: "*registerUser* , userRegister",
		},
		{
			name: "unsuccessful ignores candidates",
			word: codic.Word{
				Text:       "あ",
				Successful: false,
				Candidates: cands(str("a"), str("b")),
			},
			want: NoTranslation,
		},
		{
			name: "order preserved and no de-duplication",
			word: codic.Word{
				Text:           "値",
				Successful:     true,
				TranslatedText: "value",
				Candidates:     cands(str("val"), str("value"), str("val")),
			},
			want: "val, *value* , val",
		},
		{
			name: "no chosen candidate",
			word: codic.Word{
				Text:           "名前",
				Successful:     true,
				TranslatedText: "name",
				Candidates:     cands(str("title"), str("label")),
			},
			want: "title, label",
		},
		{
			name: "only null candidates yield empty string",
			word: codic.Word{
				Text:       "無",
				Successful: true,
				Candidates: cands(nil, nil),
			},
			want: "",
		},
		{
			name: "no candidates",
			word: codic.Word{Text: "空", Successful: true},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words([]codic.Word{tt.word})
			require.Len(t, got, 1)
			assert.Equal(t, tt.word.Text, got[0].Text)
			assert.Equal(t, tt.want, got[0].Candidates)
		})
	}
}

func TestWordsKeepsWordOrder(t *testing.T) {
	got := Words([]codic.Word{
		{Text: "ユーザー", Successful: true, TranslatedText: "user", Candidates: cands(str("user"))},
		{Text: "登録", Successful: false},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "ユーザー", got[0].Text)
	assert.Equal(t, "*user* ", got[0].Candidates)
	assert.Equal(t, "登録", got[1].Text)
	assert.Equal(t, NoTranslation, got[1].Candidates)
}

func TestWordsEmpty(t *testing.T) {
	assert.Empty(t, Words(nil))
}
