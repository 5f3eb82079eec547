package tts

import (
	"context"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/storage"
	"github.com/pkg/errors"
)

//Synthesizer converts text to audio bytes
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, cfg Config) ([]byte, error)
}

//ErrSynthesisFailed marks errors of the synthesis provider
var ErrSynthesisFailed = errors.New("synthesis failed")

//SynthesisError wraps provider failure cause
type SynthesisError struct {
	Cause error
}

func (e *SynthesisError) Error() string {
	return "synthesis failed: " + e.Cause.Error()
}

//Unwrap returns the cause
func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

//Is makes errors.Is(err, ErrSynthesisFailed) true
func (e *SynthesisError) Is(target error) bool {
	return target == ErrSynthesisFailed
}

//Cache is a write once audio cache keyed by the content fingerprint.
//Concurrent misses on the same key may both call the provider and both write
//equal bytes to the same key, which is harmless
type Cache struct {
	objects     storage.ObjectStore
	synthesizer Synthesizer
}

//NewCache creates cache instance
func NewCache(objects storage.ObjectStore, synthesizer Synthesizer) (*Cache, error) {
	if objects == nil {
		return nil, errors.New("No object store")
	}
	if synthesizer == nil {
		return nil, errors.New("No synthesizer")
	}
	return &Cache{objects: objects, synthesizer: synthesizer}, nil
}

//Synthesize returns the storage key of the audio, calling the provider only on a cache miss.
//Config defaults are applied before the key is computed
func (c *Cache) Synthesize(ctx context.Context, text string, cfg Config) (string, error) {
	cfg = cfg.WithDefaults()
	key := Key(text, cfg)
	ok, err := c.objects.Exists(ctx, key)
	if err != nil {
		return "", errors.Wrapf(err, "Can't check %s", key)
	}
	if ok {
		cmdapp.Log.Debugf("TTS cache hit %s", key)
		return key, nil
	}
	cmdapp.Log.Infof("TTS cache miss %s", key)
	audio, err := c.synthesizer.Synthesize(ctx, text, cfg)
	if err != nil {
		return "", &SynthesisError{Cause: err}
	}
	if len(audio) == 0 {
		return "", &SynthesisError{Cause: errors.New("empty audio")}
	}
	if err := c.objects.Put(ctx, key, audio, ContentType(cfg.Format)); err != nil {
		return "", errors.Wrapf(err, "Can't save %s", key)
	}
	return key, nil
}
