// Package specs checks store availability of a product through the ajax
// endpoint that backs the "check store availability" widget on the retailer's
// product pages.
package specs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"invtracker/internal/assert"
	"invtracker/internal/inventory"
	"invtracker/internal/telemetry"
	"invtracker/lib/util/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_fetch       = "client.fetch"
	report_fetch_nonce = "client.fetch-nonce"
	report_parse       = "client.parse"
)

const (
	DefaultBaseURL = "https://specsonline.com"
	DefaultRadius  = 100

	availabilityPath = "/wp-admin/admin-ajax.php"
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// ErrUnexpectedResponse is returned when the endpoint answers with something
// that is not the availability json envelope.
var ErrUnexpectedResponse = errors.New("unexpected availability response")

type Options struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Radius is the search radius in miles around the postal code, defaults
	// to DefaultRadius.
	Radius int
	// Nonce is where the fulfillment nonce comes from.
	Nonce NonceSource
	// NoncePage is the path of a page that embeds a fresh nonce, defaults to "/".
	NoncePage string
	// RequestsPerSecond limits the request rate, defaults to 2.
	RequestsPerSecond float64
	Timeout           time.Duration
	// DumpDir, when set, receives a copy of every response.
	DumpDir string
}

type Client struct {
	http      *resty.Client
	radius    string
	nonce     NonceSource
	noncePage string
	tel       telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil("nonce source", opts.Nonce)
	assert.NotNil("tel", tel)

	tel = telemetry.NewScopedAPI("specs", tel)

	baseUrl := opts.BaseURL
	if baseUrl == "" {
		baseUrl = DefaultBaseURL
	}
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	radius := opts.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	noncePage := opts.NoncePage
	if noncePage == "" {
		noncePage = "/"
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(timeout)

	// burst of 1 keeps requests evenly spaced
	rateLimiter := rate.NewLimiter(rate.Limit(rps), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, "invtracker.internal.scrapers.specs", tel)

	if opts.DumpDir != "" {
		out, err := restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			return nil, err
		}
		restyutil.DumpResponses(httpClient, out)
	}

	return &Client{
		http:      httpClient,
		radius:    strconv.Itoa(radius),
		nonce:     opts.Nonce,
		noncePage: noncePage,
		tel:       tel,
	}, nil
}

func (c *Client) fetchPage(ctx context.Context) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.noncePage)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("get %s: %s", c.noncePage, res.Status())
	}
	return res.String(), nil
}

type availabilityResponse struct {
	Data json.RawMessage `json:"data"`
}

// Fetch returns every store the endpoint lists for sku around the postal
// code location, in the order the endpoint lists them.
func (c *Client) Fetch(ctx context.Context, sku, location string) ([]inventory.Observation, error) {
	nonce, err := c.nonce.Nonce(ctx, c.fetchPage)
	if err != nil {
		err = fmt.Errorf("nonce: %w", err)
		c.tel.ReportBroken(report_fetch_nonce, err, sku, location)
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetFormData(map[string]string{
			"action":               "prod_avail_check",
			"zip":                  location,
			"sku":                  sku,
			"zero_inventory_check": "true",
			"radius":               c.radius,
			"fulfillment_nonce":    nonce,
		}).
		Post(availabilityPath)
	if err != nil {
		c.tel.ReportBroken(report_fetch, err, sku, location)
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("%w: status %s", ErrUnexpectedResponse, res.Status())
		c.tel.ReportBroken(report_fetch, err, sku, location)
		return nil, err
	}

	var body availabilityResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrUnexpectedResponse, err.Error())
		c.tel.ReportBroken(report_parse, err, sku, location)
		return nil, err
	}

	// the endpoint answers with a non string data field (false, 0, an
	// object) when it has nothing for the sku
	var fragment string
	if json.Unmarshal(body.Data, &fragment) != nil || fragment == "" {
		c.tel.ReportDebug("no availability fragment", sku, location, string(body.Data))
		return nil, nil
	}

	observations, err := ParseAvailability(ctx, fragment)
	if err != nil {
		c.tel.ReportBroken(report_parse, err, sku, location)
		return nil, err
	}
	c.tel.ReportDebug("fetched availability", sku, location, len(observations))
	return observations, nil
}
