package scoring

import (
	"math"
	"regexp"
	"strings"
)

//Op is a word alignment operation
type Op string

const (
	//Match - reference and hypothesis words are equal
	Match Op = "N"
	//Substitute - reference word recognized as other word
	Substitute Op = "S"
	//Delete - reference word is missing in hypothesis
	Delete Op = "D"
	//Insert - extra hypothesis word
	Insert Op = "I"
)

//WordOp is one aligned pair. Ref is nil for insertions, Hyp is nil for deletions
type WordOp struct {
	Ref *string `json:"ref"`
	Hyp *string `json:"hyp"`
	Op  Op      `json:"op"`
}

//Counts keeps the number of each operation
type Counts struct {
	N int `json:"N"`
	S int `json:"S"`
	D int `json:"D"`
	I int `json:"I"`
}

//RefLen is the number of reference words taking part in the alignment
func (c Counts) RefLen() int {
	return c.N + c.S + c.D
}

var wordRegexp = regexp.MustCompile(`[A-Za-z']+`)

//Tokenize extracts lowercased runs of latin letters and apostrophes
func Tokenize(s string) []string {
	res := []string{}
	for _, w := range wordRegexp.FindAllString(s, -1) {
		res = append(res, strings.ToLower(w))
	}
	return res
}

//Align computes the minimal edit alignment of hyp against ref.
//On equal cost the operation preference is match/substitute, then delete, then insert.
func Align(ref, hyp []string) ([]WordOp, Counts) {
	n, m := len(ref), len(hyp)
	cost := make([][]int, n+1)
	bt := make([][]Op, n+1)
	for i := range cost {
		cost[i] = make([]int, m+1)
		bt[i] = make([]Op, m+1)
	}
	for i := 1; i <= n; i++ {
		cost[i][0], bt[i][0] = i, Delete
	}
	for j := 1; j <= m; j++ {
		cost[0][j], bt[0][j] = j, Insert
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			best, op := cost[i-1][j-1], Match
			if ref[i-1] != hyp[j-1] {
				best, op = best+1, Substitute
			}
			if c := cost[i-1][j] + 1; c < best {
				best, op = c, Delete
			}
			if c := cost[i][j-1] + 1; c < best {
				best, op = c, Insert
			}
			cost[i][j], bt[i][j] = best, op
		}
	}

	var res []WordOp
	var cnt Counts
	for i, j := n, m; i > 0 || j > 0; {
		switch bt[i][j] {
		case Match, Substitute:
			op := bt[i][j]
			res = append(res, WordOp{Ref: &ref[i-1], Hyp: &hyp[j-1], Op: op})
			if op == Match {
				cnt.N++
			} else {
				cnt.S++
			}
			i, j = i-1, j-1
		case Delete:
			res = append(res, WordOp{Ref: &ref[i-1], Op: Delete})
			cnt.D++
			i--
		case Insert:
			res = append(res, WordOp{Hyp: &hyp[j-1], Op: Insert})
			cnt.I++
			j--
		}
	}
	for l, r := 0, len(res)-1; l < r; l, r = l+1, r-1 {
		res[l], res[r] = res[r], res[l]
	}
	if res == nil {
		res = []WordOp{}
	}
	return res, cnt
}

//Scores are the pronunciation scores in range 0..100.
//All sub scores are currently the same value as Overall
type Scores struct {
	Overall       int `json:"overall"`
	Accuracy      int `json:"accuracy"`
	Fluency       int `json:"fluency"`
	Pronunciation int `json:"pronunciation"`
}

//Score converts alignment counts to scores and word error rate.
//WER = (S+D+I)/max(1, N+S+D), overall = round(max(0, 1-WER)*100) with half to even rounding
func Score(c Counts) (Scores, float64) {
	denom := c.RefLen()
	if denom < 1 {
		denom = 1
	}
	wer := float64(c.S+c.D+c.I) / float64(denom)
	overall := int(math.RoundToEven(math.Max(0, 1-wer) * 100))
	return Scores{Overall: overall, Accuracy: overall, Fluency: overall, Pronunciation: overall}, wer
}

//RoundWER rounds WER to 4 decimals for storing
func RoundWER(wer float64) float64 {
	return math.Round(wer*10000) / 10000
}
