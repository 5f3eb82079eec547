package text

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

type match struct {
	score float64
	word  string
}

//closeMatches returns up to n words having similarity ratio >= cutoff,
//best first, ties by the larger word
func closeMatches(w string, words map[string]struct{}, n int, cutoff float64) []string {
	res := []string{}
	if n <= 0 || w == "" {
		return res
	}
	lw := len(w)
	m := difflib.NewMatcher(nil, nil)
	m.SetSeq2(chars(w))
	var found []match
	for c := range words {
		lc := len(c)
		if 2*float64(min(lw, lc))/float64(lw+lc) < cutoff {
			continue
		}
		m.SetSeq1(chars(c))
		if m.QuickRatio() < cutoff {
			continue
		}
		if r := m.Ratio(); r >= cutoff {
			found = append(found, match{score: r, word: c})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		return found[i].word > found[j].word
	})
	for i := 0; i < len(found) && i < n; i++ {
		res = append(res, found[i].word)
	}
	return res
}

func chars(s string) []string {
	return strings.Split(s, "")
}
