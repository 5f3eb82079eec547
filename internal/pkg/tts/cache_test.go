package tts

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/test"
)

type fakeSynthesizer struct {
	calls []Config
	err   error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string, cfg Config) ([]byte, error) {
	f.calls = append(f.calls, cfg)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + text), nil
}

func newTestCache(t *testing.T) (*Cache, *test.MemoryStore, *fakeSynthesizer) {
	ms := test.NewMemoryStore()
	fs := &fakeSynthesizer{}
	c, err := NewCache(ms, fs)
	require.Nil(t, err)
	return c, ms, fs
}

func TestNewCache_Checks(t *testing.T) {
	_, err := NewCache(nil, &fakeSynthesizer{})
	assert.NotNil(t, err)
	_, err = NewCache(test.NewMemoryStore(), nil)
	assert.NotNil(t, err)
}

func TestWithDefaults(t *testing.T) {
	assert.Equal(t, Config{Language: "en-GB", Voice: "en-GB-LibbyNeural", Rate: "+0%", Pitch: "+0st", Format: "mp3-16k"},
		Config{}.WithDefaults())
	assert.Equal(t, "wav-16k", Config{Format: "wav-16k"}.WithDefaults().Format)
	assert.Equal(t, "cheerful", Config{Style: "cheerful"}.WithDefaults().Style)
}

func TestFingerprint_Normalizes(t *testing.T) {
	c := Config{}.WithDefaults()
	f := Fingerprint("Good morning", c)
	assert.Equal(t, f, Fingerprint("  good   MORNING\n", c))
	assert.Equal(t, f, Fingerprint("good\tmorning", c))
	assert.Equal(t, 40, len(f))
}

func TestFingerprint_SensitiveToConfig(t *testing.T) {
	c := Config{}.WithDefaults()
	f := Fingerprint("apple", c)
	for _, mod := range []func(Config) Config{
		func(c Config) Config { c.Language = "en-US"; return c },
		func(c Config) Config { c.Voice = "en-GB-RyanNeural"; return c },
		func(c Config) Config { c.Rate = "-10%"; return c },
		func(c Config) Config { c.Pitch = "+2st"; return c },
		func(c Config) Config { c.Style = "cheerful"; return c },
		func(c Config) Config { c.Format = "wav-16k"; return c },
	} {
		assert.NotEqual(t, f, Fingerprint("apple", mod(c)))
	}
	assert.NotEqual(t, f, Fingerprint("apples", c))
}

func TestKey(t *testing.T) {
	c := Config{}.WithDefaults()
	k := Key("apple", c)
	assert.True(t, strings.HasPrefix(k, "tts/en-GB/en-GB-LibbyNeural/mp3-16k/"), k)
	assert.True(t, strings.HasSuffix(k, ".mp3"))
	c.Format = "wav-8k"
	assert.True(t, strings.HasSuffix(Key("apple", c), ".wav"))
	assert.Equal(t, "audio/wav", ContentType("wav-8k"))
	assert.Equal(t, "audio/mpeg", ContentType("mp3-24k"))
}

func TestSynthesize_CachesOnSecondCall(t *testing.T) {
	c, ms, fs := newTestCache(t)
	k1, err := c.Synthesize(context.Background(), "Apple", Config{})
	require.Nil(t, err)
	k2, err := c.Synthesize(context.Background(), " apple ", Config{})
	require.Nil(t, err)
	assert.Equal(t, k1, k2)
	assert.Equal(t, 1, len(fs.calls))
	assert.Equal(t, 1, ms.Puts[k1])
	assert.Equal(t, "audio:Apple", ms.String(k1))
	assert.Equal(t, "audio/mpeg", ms.ContentTypes[k1])
	assert.Equal(t, "en-GB-LibbyNeural", fs.calls[0].Voice)
}

func TestSynthesize_Hit(t *testing.T) {
	c, ms, fs := newTestCache(t)
	cfg := Config{}.WithDefaults()
	ms.Data[Key("apple", cfg)] = []byte("old")
	k, err := c.Synthesize(context.Background(), "apple", cfg)
	assert.Nil(t, err)
	assert.Equal(t, Key("apple", cfg), k)
	assert.Equal(t, 0, len(fs.calls))
	assert.Equal(t, "old", ms.String(k))
}

func TestSynthesize_ProviderFails(t *testing.T) {
	c, ms, fs := newTestCache(t)
	fs.err = errors.Wrap(apperr.ErrProviderTimeout, "azure")
	_, err := c.Synthesize(context.Background(), "apple", Config{})
	assert.True(t, errors.Is(err, ErrSynthesisFailed))
	assert.True(t, errors.Is(err, apperr.ErrProviderTimeout))
	assert.Equal(t, 0, len(ms.Data))
}

func TestSynthesize_ExistsFails(t *testing.T) {
	c, ms, fs := newTestCache(t)
	ms.FailExists[Key("apple", Config{}.WithDefaults())] = true
	_, err := c.Synthesize(context.Background(), "apple", Config{})
	assert.NotNil(t, err)
	assert.Equal(t, 0, len(fs.calls))
}
