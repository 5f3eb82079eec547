package text

import (
	"context"
	"regexp"
	"strings"
)

const (
	splitMinLen = 6
	maxSuggest  = 3
	cutoff      = 0.84
)

var commonMisspell = map[string]string{
	"bananna":    "banana",
	"recieve":    "receive",
	"teh":        "the",
	"acommodate": "accommodate",
	"accomodate": "accommodate",
	"adress":     "address",
	"seperate":   "separate",
	"definately": "definitely",
	"occured":    "occurred",
	"occurence":  "occurrence",
}

var (
	allowedWord = regexp.MustCompile(`^[A-Za-z][A-Za-z.\-']*$`)
	notLetters  = regexp.MustCompile(`[^a-z\-']+`)
)

//WordResult is a spelling check result of one word.
//OK is nil when the word could not be checked
type WordResult struct {
	Word        string   `json:"word"`
	OK          *bool    `json:"ok"`
	Reason      string   `json:"reason,omitempty"`
	Suggestions []string `json:"suggestions"`
}

//Diag describes the lexicon state
type Diag struct {
	LexiconLoaded bool `json:"lexicon_loaded"`
	LexiconSize   int  `json:"lexicon_size"`
}

//CheckResult is returned by CheckWords
type CheckResult struct {
	Results []WordResult `json:"results"`
	Diag    Diag         `json:"diag"`
}

//Checker checks spelling of assignment words
type Checker struct {
	lexicon *Lexicon
}

//NewChecker creates checker
func NewChecker(lexicon *Lexicon) *Checker {
	if lexicon == nil {
		lexicon = NewLexicon(nil)
	}
	return &Checker{lexicon: lexicon}
}

//CheckWords checks every word
func (c *Checker) CheckWords(ctx context.Context, words []string) *CheckResult {
	lex := c.lexicon.get(ctx)
	res := &CheckResult{Results: make([]WordResult, 0, len(words)), Diag: Diag{LexiconLoaded: len(lex) > 0, LexiconSize: len(lex)}}
	for _, w := range words {
		res.Results = append(res.Results, checkWord(w, lex))
	}
	return res
}

func checkWord(w0 string, lex map[string]struct{}) WordResult {
	w := strings.ToLower(strings.TrimSpace(w0))
	if w == "" {
		return unchecked(w0, "empty")
	}
	if s, ok := commonMisspell[w]; ok {
		return wrong(w0, "common_misspell", []string{s})
	}
	if len(lex) == 0 {
		return unchecked(w0, "unchecked")
	}
	if !allowedWord.MatchString(w) {
		return wrong(w0, "illegal_chars", closeMatches(notLetters.ReplaceAllString(w, ""), lex, maxSuggest, cutoff))
	}
	if _, ok := lex[w]; ok && !strings.Contains(w, ".") {
		t := true
		return WordResult{Word: w0, OK: &t, Suggestions: []string{}}
	}
	flat := strings.ReplaceAll(w, ".", "")
	if sug := closeMatches(flat, lex, maxSuggest, cutoff); len(sug) > 0 {
		return wrong(w0, "edit_distance", sug)
	}
	if s := splitByDot(w, lex); s != "" {
		return wrong(w0, "needs_split", []string{s})
	}
	if s := splitNoDelim(flat, lex); s != "" {
		return wrong(w0, "needs_split_no_delim", []string{s})
	}
	return unchecked(w0, "unchecked")
}

func wrong(w, reason string, sug []string) WordResult {
	f := false
	return WordResult{Word: w, OK: &f, Reason: reason, Suggestions: sug}
}

func unchecked(w, reason string) WordResult {
	return WordResult{Word: w, Reason: reason, Suggestions: []string{}}
}

func splitByDot(w string, lex map[string]struct{}) string {
	var parts []string
	for _, p := range strings.Split(w, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) != 2 {
		return ""
	}
	if inLex(parts[0], lex) && inLex(parts[1], lex) {
		return parts[0] + " " + parts[1]
	}
	return ""
}

func splitNoDelim(w string, lex map[string]struct{}) string {
	if len(w) < splitMinLen {
		return ""
	}
	for i := 2; i < len(w)-1; i++ {
		if inLex(w[:i], lex) && inLex(w[i:], lex) {
			return w[:i] + " " + w[i:]
		}
	}
	return ""
}

func inLex(w string, lex map[string]struct{}) bool {
	_, ok := lex[w]
	return ok
}
