package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/hashicorp/go-retryablehttp"
)

//STT calls Azure short audio speech to text REST API
type STT struct {
	httpclient *retryablehttp.Client
	url        string
	key        string
	timeout    time.Duration
}

//NewSTTFromConfig creates STT client from azure.* settings
func NewSTTFromConfig() (*STT, error) {
	return NewSTT(optionsFromConfig("azure.sttTimeout", 30*time.Second))
}

//NewSTT creates STT client
func NewSTT(opt Options) (*STT, error) {
	if err := checkOptions(opt); err != nil {
		return nil, err
	}
	res := STT{key: opt.Key, timeout: opt.Timeout, url: opt.URL}
	if res.url == "" {
		res.url = fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", opt.Region)
	}
	if res.timeout <= 0 {
		res.timeout = 30 * time.Second
	}
	res.httpclient = newHTTPClient(opt.RetryMax)
	cmdapp.Log.Infof("Azure STT: %s", res.url)
	return &res, nil
}

type sttResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Text              string `json:"Text"`
}

//Recognize returns recognized text, empty text if nothing was recognized
func (s *STT) Recognize(ctx context.Context, audio []byte, language, contentType string) (string, error) {
	u := s.url + "?" + url.Values{"language": []string{language}, "format": []string{"simple"}}.Encode()
	body, err := post(ctx, s.httpclient, s.timeout, u, audio, map[string]string{
		"Ocp-Apim-Subscription-Key": s.key,
		"Content-Type":              contentType,
	})
	if err != nil {
		return "", err
	}
	var resp sttResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	if !strings.EqualFold(resp.RecognitionStatus, "success") {
		cmdapp.Log.Infof("Recognition status: %s", resp.RecognitionStatus)
		return "", nil
	}
	txt := resp.DisplayText
	if txt == "" {
		txt = resp.Text
	}
	return strings.TrimSpace(txt), nil
}
