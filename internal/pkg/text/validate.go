package text

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	joinedWords = regexp.MustCompile(`\b([A-Za-z]+)\.([A-Za-z]+)\b`)
	sentenceEnd = regexp.MustCompile(`([.!?])(\S)`)
	spaces      = regexp.MustCompile(`\s+`)
)

//Line is a dialogue line
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

//Issue describes a normalization change or a suggestion
type Issue struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	From  string `json:"from"`
	To    string `json:"to"`
	Hint  string `json:"hint,omitempty"`
}

//Normalized keeps normalized input
type Normalized struct {
	Words    []string `json:"words"`
	Dialogue []Line   `json:"dialogue"`
}

//ValidateResult is returned by Validate
type ValidateResult struct {
	Normalized Normalized `json:"normalized"`
	Issues     []Issue    `json:"issues"`
}

//Validate normalizes words and dialogue lines and reports every change
func (c *Checker) Validate(ctx context.Context, words []string, dialogue []Line) *ValidateResult {
	res := &ValidateResult{Normalized: Normalized{Words: []string{}, Dialogue: []Line{}}, Issues: []Issue{}}
	for i, w := range words {
		ww := strings.TrimSpace(w)
		if ww != w {
			res.Issues = append(res.Issues, Issue{Field: fmt.Sprintf("words[%d]", i), Type: "trim", From: w, To: ww})
		}
		res.Normalized.Words = append(res.Normalized.Words, ww)
	}
	var lex map[string]struct{}
	if len(dialogue) > 0 {
		lex = c.lexicon.get(ctx)
	}
	for i, d := range dialogue {
		spk0 := strings.TrimSpace(d.Speaker)
		spk := normSpeaker(spk0)
		if spk != spk0 {
			res.Issues = append(res.Issues, Issue{Field: fmt.Sprintf("dialogue[%d].speaker", i), Type: "speaker_cap", From: spk0, To: spk})
		}
		field := fmt.Sprintf("dialogue[%d].text", i)
		txt0 := strings.TrimSpace(d.Text)
		for _, m := range joinedWords.FindAllStringSubmatch(txt0, -1) {
			if inLex(strings.ToLower(m[1]), lex) && inLex(strings.ToLower(m[2]), lex) {
				res.Issues = append(res.Issues, Issue{Field: field, Type: "needs_split", From: m[1] + "." + m[2],
					To: m[1] + " " + m[2], Hint: "separate joined words with a space"})
			}
		}
		txt := capSentence(txt0)
		if txt != txt0 {
			res.Issues = append(res.Issues, Issue{Field: field, Type: "normalize", From: txt0, To: txt,
				Hint: "space after sentence end, single spaces, capital first letter"})
		}
		res.Normalized.Dialogue = append(res.Normalized.Dialogue, Line{Speaker: spk, Text: txt})
	}
	return res
}

func normSpeaker(s string) string {
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}

func capSentence(s string) string {
	if s == "" {
		return s
	}
	s = sentenceEnd.ReplaceAllString(s, "$1 $2")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
