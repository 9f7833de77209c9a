// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webclient builds the HTTP client used for all board traffic.
// The MSIT site sits behind bot protection that rejects the default Go
// client fingerprint, so the client carries a browser User-Agent and the
// cloudflare-bp transport wrapper, and paces requests with a rate limiter
// instead of ad-hoc sleeps.
package webclient

import (
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pdiddy/msit-dl/pkg/types"
)

// DefaultUserAgent is sent when the config leaves UserAgent empty.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const defaultTimeout = 30 * time.Second

// New returns a resty client configured for the board at baseURL. A
// positive minInterval installs a limiter that spaces requests at least
// that far apart. Failed requests are not retried.
func New(baseURL string, cfg types.HTTPConfig, minInterval time.Duration) (*resty.Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseURL)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client.SetHeader("User-Agent", ua)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsed.Hostname()))

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client.SetTimeout(timeout)

	if minInterval > 0 {
		limiter := rate.NewLimiter(rate.Every(minInterval), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return client, nil
}
