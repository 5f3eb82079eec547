package text

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
)

var lexiconWord = regexp.MustCompile(`^[a-z][a-z\-']*$`)

//LoadFunc returns word list text, one word per line
type LoadFunc func(ctx context.Context) (string, error)

//Lexicon is a lazily loaded word set.
//It is loaded once on first use and never reloaded during the process lifetime,
//a failed load leaves it empty
type Lexicon struct {
	load  LoadFunc
	once  sync.Once
	words map[string]struct{}
}

//NewLexicon creates lexicon
func NewLexicon(load LoadFunc) *Lexicon {
	return &Lexicon{load: load}
}

func (l *Lexicon) get(ctx context.Context) map[string]struct{} {
	l.once.Do(func() {
		l.words = map[string]struct{}{}
		if l.load == nil {
			return
		}
		txt, err := l.load(ctx)
		if err != nil {
			cmdapp.Log.Warnf("Can't load lexicon: %v", err)
			return
		}
		for _, s := range strings.Split(txt, "\n") {
			w := strings.ToLower(strings.TrimSpace(s))
			if lexiconWord.MatchString(w) {
				l.words[w] = struct{}{}
			}
		}
		cmdapp.Log.Infof("Lexicon loaded: %d words", len(l.words))
	})
	return l.words
}

//Contains checks word
func (l *Lexicon) Contains(ctx context.Context, w string) bool {
	_, ok := l.get(ctx)[w]
	return ok
}

//Size returns word count, loading the lexicon if needed
func (l *Lexicon) Size(ctx context.Context) int {
	return len(l.get(ctx))
}
