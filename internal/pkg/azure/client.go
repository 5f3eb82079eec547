package azure

import (
	"context"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/airenas/speakhw/internal/pkg/apperr"
	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/utils"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

//Options for Azure speech services
type Options struct {
	Key      string
	Region   string
	Timeout  time.Duration
	RetryMax int
	// URL overrides the region based endpoint
	URL string
}

func newHTTPClient(retryMax int) *retryablehttp.Client {
	res := retryablehttp.NewClient()
	res.RetryMax = retryMax
	res.Logger = nil
	return res
}

func checkOptions(opt Options) error {
	if opt.Key == "" {
		return errors.New("No azure.key provided")
	}
	if opt.Region == "" && opt.URL == "" {
		return errors.New("No azure.region provided")
	}
	return nil
}

//optionsFromConfig reads azure.* settings
func optionsFromConfig(timeoutKey string, def time.Duration) Options {
	c := cmdapp.Config
	return Options{Key: c.GetString("azure.key"), Region: c.GetString("azure.region"),
		Timeout: cmdapp.DurationOr(timeoutKey, def), RetryMax: c.GetInt("azure.retryMax")}
}

func post(ctx context.Context, client *retryablehttp.Client, timeout time.Duration, url string,
	body []byte, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, mapErr(ctx, err)
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrap(apperr.ErrProviderFailure, err.Error())
	}
	res, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, mapErr(ctx, err)
	}
	return res, nil
}

func mapErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(apperr.ErrProviderTimeout, err.Error())
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.Wrap(apperr.ErrProviderTimeout, err.Error())
	}
	return errors.Wrap(apperr.ErrProviderFailure, err.Error())
}
