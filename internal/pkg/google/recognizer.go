package google

import (
	"context"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

//Recognizer calls Google Cloud Speech-to-Text synchronous recognition
type Recognizer struct {
	recognize  recognizeFunc
	closeFn    func() error
	sampleRate int32
	timeout    time.Duration
}

//NewRecognizerFromConfig creates client from google.* settings
func NewRecognizerFromConfig(ctx context.Context) (*Recognizer, error) {
	var opts []option.ClientOption
	if f := cmdapp.Config.GetString("google.credentials"); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}
	if e := cmdapp.Config.GetString("google.endpoint"); e != "" {
		opts = append(opts, option.WithEndpoint(e))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "Can't init google speech client")
	}
	cmdapp.Log.Infof("Google STT initialized")
	res := newRecognizer(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return c.Recognize(ctx, req)
	}, int32(cmdapp.Config.GetInt("google.sampleRate")), cmdapp.DurationOr("google.timeout", 30*time.Second))
	res.closeFn = c.Close
	return res, nil
}

func newRecognizer(f recognizeFunc, sampleRate int32, timeout time.Duration) *Recognizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Recognizer{recognize: f, sampleRate: sampleRate, timeout: timeout, closeFn: func() error { return nil }}
}

//Recognize returns the best alternatives joined by space
func (r *Recognizer) Recognize(ctx context.Context, audio []byte, language, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cfg := &speechpb.RecognitionConfig{
		Encoding:     Encoding(contentType),
		LanguageCode: language,
	}
	if r.sampleRate > 0 && cfg.Encoding != speechpb.RecognitionConfig_LINEAR16 {
		cfg.SampleRateHertz = r.sampleRate
	}
	resp, err := r.recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(apperr.ErrProviderTimeout, err.Error())
		}
		return "", errors.Wrap(apperr.ErrProviderFailure, err.Error())
	}
	var parts []string
	for _, res := range resp.GetResults() {
		alts := res.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if s := strings.TrimSpace(alts[0].GetTranscript()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

//Close releases the grpc connection
func (r *Recognizer) Close() error {
	return r.closeFn()
}

//Encoding maps the upload content type to Google audio encoding
func Encoding(contentType string) speechpb.RecognitionConfig_AudioEncoding {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(ct, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(ct, "ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(ct, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	}
	return speechpb.RecognitionConfig_MP3
}
