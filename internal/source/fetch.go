package source

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/record"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_fetch      = "fetch"
	report_fetcher_save_page  = "fetch.save-page"
	report_fetcher_saved_page = "fetch.saved-page"
)

// Fetcher downloads served pages and turns them into content.
type Fetcher struct {
	http   *resty.Client
	output *PageOutput
	tel    telemetry.API
}

type FetcherOption func(cfg *fetcherCfg)

type fetcherCfg struct {
	timeout   time.Duration
	perSecond float64
	userAgent string
	output    *PageOutput
}

func WithTimeout(timeout time.Duration) FetcherOption {
	return func(cfg *fetcherCfg) {
		cfg.timeout = timeout
	}
}

// WithRateLimit bounds the number of requests per second, 0 disables the limit.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(cfg *fetcherCfg) {
		cfg.perSecond = perSecond
	}
}

func WithUserAgent(userAgent string) FetcherOption {
	return func(cfg *fetcherCfg) {
		cfg.userAgent = userAgent
	}
}

// WithPageOutput stores a copy of every fetched page.
func WithPageOutput(output PageOutput) FetcherOption {
	return func(cfg *fetcherCfg) {
		cfg.output = &output
	}
}

func NewFetcher(tel telemetry.API, opts ...FetcherOption) Fetcher {
	assert.NotNil(tel)

	cfg := fetcherCfg{
		timeout:   30 * time.Second,
		perSecond: 2,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	}
	for _, o := range opts {
		o(&cfg)
	}

	tel = telemetry.NewScopedAPI("source", tel)

	client := resty.New()
	client.SetHeader("user-agent", cfg.userAgent)
	client.SetTimeout(cfg.timeout)

	if cfg.perSecond > 0 {
		// burst >= 1 so no request is ever dropped, only delayed
		limiter := rate.NewLimiter(rate.Limit(cfg.perSecond), max(1, int(cfg.perSecond)))
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, tel)

	return Fetcher{http: client, output: cfg.output, tel: tel}
}

// Fetch downloads url and parses it as a rendered page.
func (f Fetcher) Fetch(ctx context.Context, url string) (record.Content, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_fetch, err, url)
		return record.Content{}, err
	}
	if res.IsError() {
		err = fmt.Errorf("fetch %s: unexpected status %s", url, res.Status())
		f.tel.ReportBroken(report_fetcher_fetch, err)
		return record.Content{}, err
	}

	if f.output != nil {
		path, err := f.output.Write(url, res.Body())
		if err != nil {
			f.tel.ReportWarning(report_fetcher_save_page, err)
		} else {
			f.tel.ReportDebug(report_fetcher_saved_page, url, path)
		}
	}

	content, err := FromHTML(bytes.NewBuffer(res.Body()))
	if err != nil {
		f.tel.ReportBroken(report_fetcher_fetch, err, url)
		return record.Content{}, err
	}
	return content, nil
}
