package azure

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/tts"
	"github.com/hashicorp/go-retryablehttp"
)

var outputFormats = map[string]string{
	"mp3-16k": "audio-16khz-32kbitrate-mono-mp3",
	"mp3-24k": "audio-24khz-48kbitrate-mono-mp3",
	"mp3-48k": "audio-48khz-96kbitrate-mono-mp3",
	"wav-16k": "riff-16khz-16bit-mono-pcm",
	"wav-8k":  "riff-8khz-16bit-mono-pcm",
}

//TTS calls Azure text to speech REST API
type TTS struct {
	httpclient *retryablehttp.Client
	url        string
	key        string
	timeout    time.Duration
}

//NewTTSFromConfig creates TTS client from azure.* settings
func NewTTSFromConfig() (*TTS, error) {
	return NewTTS(optionsFromConfig("azure.ttsTimeout", 20*time.Second))
}

//NewTTS creates TTS client
func NewTTS(opt Options) (*TTS, error) {
	if err := checkOptions(opt); err != nil {
		return nil, err
	}
	res := TTS{key: opt.Key, timeout: opt.Timeout, url: opt.URL}
	if res.url == "" {
		res.url = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", opt.Region)
	}
	if res.timeout <= 0 {
		res.timeout = 20 * time.Second
	}
	res.httpclient = newHTTPClient(opt.RetryMax)
	cmdapp.Log.Infof("Azure TTS: %s", res.url)
	return &res, nil
}

//Synthesize returns audio bytes
func (t *TTS) Synthesize(ctx context.Context, text string, cfg tts.Config) ([]byte, error) {
	return post(ctx, t.httpclient, t.timeout, t.url, []byte(ssml(text, cfg)), map[string]string{
		"Ocp-Apim-Subscription-Key": t.key,
		"Content-Type":              "application/ssml+xml",
		"X-Microsoft-OutputFormat":  OutputFormat(cfg.Format),
	})
}

//OutputFormat maps short format name to Azure output format, unknown names map to mp3-16k
func OutputFormat(f string) string {
	if r, ok := outputFormats[f]; ok {
		return r
	}
	return outputFormats[tts.DefaultFormat]
}

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	xmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func escapeText(s string) string {
	return xmlEscaper.Replace(controlChars.ReplaceAllString(s, " "))
}

func ssml(text string, cfg tts.Config) string {
	prosody := fmt.Sprintf("<prosody rate='%s' pitch='%s'>%s</prosody>", cfg.Rate, cfg.Pitch, escapeText(text))
	if cfg.Style != "" {
		prosody = fmt.Sprintf("<mstts:express-as style='%s' xmlns:mstts='https://www.w3.org/2001/mstts'>%s</mstts:express-as>",
			cfg.Style, prosody)
	}
	return fmt.Sprintf("<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>", cfg.Language, cfg.Voice, prosody)
}
