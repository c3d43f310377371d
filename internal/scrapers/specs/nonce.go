package specs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("invtracker.internal.scrapers.specs")

// PageFetcher returns the html of the page that embeds the nonce.
type PageFetcher func(ctx context.Context) (string, error)

// NonceSource decides where the fulfillment nonce of a request comes from.
type NonceSource interface {
	Nonce(ctx context.Context, page PageFetcher) (string, error)
}

const (
	NoncePolicyStatic     = "static"
	NoncePolicyOncePerRun = "once"
	NoncePolicyPerRequest = "request"
)

// NewNonceSource creates the NonceSource of a policy, static is the nonce used
// by NoncePolicyStatic.
func NewNonceSource(policy, static string) (NonceSource, error) {
	switch policy {
	case "", NoncePolicyStatic:
		if static == "" {
			return nil, fmt.Errorf("nonce policy %q requires a nonce", NoncePolicyStatic)
		}
		return StaticNonce(static), nil
	case NoncePolicyOncePerRun:
		return &OncePerRunNonce{}, nil
	case NoncePolicyPerRequest:
		return PerRequestNonce{}, nil
	default:
		return nil, fmt.Errorf("unknown nonce policy %q", policy)
	}
}

// StaticNonce is a nonce that never changes.
type StaticNonce string

func (s StaticNonce) Nonce(context.Context, PageFetcher) (string, error) {
	return string(s), nil
}

// OncePerRunNonce scrapes the nonce on first use and reuses it afterwards. A
// failed scrape is retried on the next call.
type OncePerRunNonce struct {
	mu     sync.Mutex
	cached string
}

func (o *OncePerRunNonce) Nonce(ctx context.Context, page PageFetcher) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cached != "" {
		return o.cached, nil
	}
	nonce, err := scrapeNonce(ctx, page)
	if err != nil {
		return "", err
	}
	o.cached = nonce
	return nonce, nil
}

// PerRequestNonce scrapes a fresh nonce for every request.
type PerRequestNonce struct{}

func (PerRequestNonce) Nonce(ctx context.Context, page PageFetcher) (string, error) {
	return scrapeNonce(ctx, page)
}

var ErrNonceNotFound = errors.New("could not find fulfillment nonce")

var nonceRegex = regexp.MustCompile(`["']?fulfillment_nonce["']?\s*[:=]\s*["']([A-Za-z0-9]+)["']`)

func scrapeNonce(ctx context.Context, page PageFetcher) (string, error) {
	ctx, span := tracer.Start(ctx, "scrapeNonce")
	defer span.End()

	body, err := page(ctx)
	if err != nil {
		return "", err
	}
	return FindNonce(body)
}

// FindNonce looks for the fulfillment nonce in the inline scripts of a page.
func FindNonce(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	var nonce string
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		match := nonceRegex.FindStringSubmatch(script.Text())
		if len(match) == 2 {
			nonce = match[1]
			return false
		}
		return true
	})
	if nonce == "" {
		return "", ErrNonceNotFound
	}
	return nonce, nil
}
