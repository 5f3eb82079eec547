package google

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/airenas/speakhw/internal/pkg/apperr"
)

func TestEncoding(t *testing.T) {
	tests := []struct {
		in string
		v  speechpb.RecognitionConfig_AudioEncoding
	}{
		{in: "audio/wav", v: speechpb.RecognitionConfig_LINEAR16},
		{in: "audio/x-wav", v: speechpb.RecognitionConfig_LINEAR16},
		{in: "audio/flac", v: speechpb.RecognitionConfig_FLAC},
		{in: "audio/ogg", v: speechpb.RecognitionConfig_OGG_OPUS},
		{in: "audio/webm", v: speechpb.RecognitionConfig_WEBM_OPUS},
		{in: "audio/mpeg", v: speechpb.RecognitionConfig_MP3},
		{in: "", v: speechpb.RecognitionConfig_MP3},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.v, Encoding(tc.in))
		})
	}
}

func TestRecognize(t *testing.T) {
	var got *speechpb.RecognizeRequest
	r := newRecognizer(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		got = req
		return &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " I like "}, {Transcript: "ignored"}}},
			{},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "apples"}}},
		}}, nil
	}, 16000, 0)
	res, err := r.Recognize(context.Background(), []byte("mp3"), "en-GB", "audio/mpeg")
	assert.Nil(t, err)
	assert.Equal(t, "I like apples", res)
	assert.Equal(t, "en-GB", got.GetConfig().GetLanguageCode())
	assert.Equal(t, int32(16000), got.GetConfig().GetSampleRateHertz())
	assert.Equal(t, []byte("mp3"), got.GetAudio().GetContent())
	assert.Nil(t, r.Close())
}

func TestRecognize_WavKeepsHeaderRate(t *testing.T) {
	var got *speechpb.RecognizeRequest
	r := newRecognizer(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		got = req
		return &speechpb.RecognizeResponse{}, nil
	}, 16000, 0)
	res, err := r.Recognize(context.Background(), []byte("wav"), "en-GB", "audio/wav")
	assert.Nil(t, err)
	assert.Equal(t, "", res)
	assert.Equal(t, int32(0), got.GetConfig().GetSampleRateHertz())
}

func TestRecognize_Fail(t *testing.T) {
	r := newRecognizer(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return nil, errors.New("olia")
	}, 0, 0)
	_, err := r.Recognize(context.Background(), []byte("wav"), "en-GB", "audio/wav")
	assert.True(t, errors.Is(err, apperr.ErrProviderFailure))
}

func TestRecognize_Timeout(t *testing.T) {
	r := newRecognizer(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		<-ctx.Done()
		return nil, errors.New("deadline")
	}, 0, 10*time.Millisecond)
	_, err := r.Recognize(context.Background(), []byte("wav"), "en-GB", "audio/wav")
	assert.True(t, errors.Is(err, apperr.ErrProviderTimeout))
}
