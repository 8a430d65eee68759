package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/metrics"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/telemetry"
	"github.com/big-blue22/keizibann/internal/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	UserAgent        = "MyCustomPreviewBot/1.0 (https://github.com/big-blue22/keizibann)"
	DefaultTimeout   = 5 * time.Second
	DefaultMaxBody   = 2 << 20
	maxRedirects     = 5
	descriptionLimit = 200
)

var (
	ErrInvalidURL     = errors.New("invalid or unsafe url")
	ErrBlockedAddress = errors.New("address is not a public unicast address")
	ErrUpstreamStatus = errors.New("site returned an error status")
)

// Fetcher builds link previews for posted URLs
type Fetcher struct {
	client       *http.Client
	limiter      *rate.Limiter
	maxBody      int64
	timeout      time.Duration
	allowPrivate bool
	useMocks     bool
}

type Option func(*Fetcher)

// WithAllowPrivate disables the public-address check. Only for tests against local servers.
func WithAllowPrivate() Option {
	return func(f *Fetcher) { f.allowPrivate = true }
}

// WithRateLimit caps outbound fetches per second across the process
func WithRateLimit(perSecond float64, burst int) Option {
	return func(f *Fetcher) { f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

func WithMaxBody(n int64) Option {
	return func(f *Fetcher) { f.maxBody = n }
}

// WithoutMocks makes example.com URLs go to the network like any other host
func WithoutMocks() Option {
	return func(f *Fetcher) { f.useMocks = false }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		limiter:  rate.NewLimiter(rate.Limit(5), 10),
		maxBody:  DefaultMaxBody,
		timeout:  DefaultTimeout,
		useMocks: true,
	}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{
		Timeout:   f.timeout,
		KeepAlive: 30 * time.Second,
	}
	if !f.allowPrivate {
		dialer.Control = guardDial
	}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   f.timeout,
		ResponseHeaderTimeout: f.timeout,
	}

	f.client = telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
		ServiceName:  "preview",
		Timeout:      f.timeout,
		Base:         transport,
		MaxRedirects: maxRedirects,
	})
	return f
}

// guardDial runs after DNS resolution for every address actually dialed,
// redirects included, so a hostname cannot be rebound to an internal address.
func guardDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicUnicast(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

func isPublicUnicast(ip net.IP) bool {
	switch {
	case !ip.IsGlobalUnicast(),
		ip.IsPrivate(),
		ip.IsLoopback(),
		ip.IsLinkLocalUnicast(),
		ip.IsMulticast(),
		ip.IsUnspecified(),
		sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

func parseTarget(raw string) (*url.URL, error) {
	u, err := util.ValidateHTTPURL(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return u, nil
}

// Generate returns the link card for rawURL
func (f *Fetcher) Generate(ctx context.Context, rawURL string) (*models.PreviewData, error) {
	u, err := parseTarget(rawURL)
	if err != nil {
		metrics.Get().PreviewFetchesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if f.useMocks && isMockHost(u) {
		metrics.Get().PreviewFetchesTotal.WithLabelValues("mock").Inc()
		return mockPreview(u.String()), nil
	}

	body, finalURL, err := f.fetch(ctx, u, "fetch")
	if err != nil {
		return nil, err
	}

	meta := parseDocument(body)
	data := &models.PreviewData{
		Title:       firstNonEmpty(meta.get("og:title"), meta.title, "タイトルなし"),
		Description: util.TruncateRunes(firstNonEmpty(meta.get("twitter:description"), meta.get("og:description"), "説明なし"), descriptionLimit),
		Image:       resolveImage(finalURL, meta.get("og:image")),
		SiteName:    firstNonEmpty(meta.get("og:site_name"), u.Hostname()),
		URL:         u.String(),
	}
	return data, nil
}

// FetchTitle returns the first <title> of the page, which may be empty
func (f *Fetcher) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	u, err := parseTarget(rawURL)
	if err != nil {
		return "", err
	}
	if f.useMocks && isMockHost(u) {
		return mockPreview(u.String()).Title, nil
	}
	body, _, err := f.fetch(ctx, u, "title")
	if err != nil {
		return "", err
	}
	return parseDocument(body).title, nil
}

func (f *Fetcher) fetch(ctx context.Context, u *url.URL, op string) ([]byte, *url.URL, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		metrics.Get().PreviewFetchesTotal.WithLabelValues("rate_limited").Inc()
		return nil, nil, err
	}

	ctx, span := telemetry.TraceExternalCall(ctx, telemetry.ExternalServiceCallAttrs{
		Service:    "preview",
		Operation:  op,
		ResourceID: u.Hostname(),
	})
	body, finalURL, err := f.get(ctx, u)
	telemetry.EndExternalCall(span, err)

	switch {
	case err == nil:
		metrics.Get().PreviewFetchesTotal.WithLabelValues("success").Inc()
	case errors.Is(err, ErrBlockedAddress):
		metrics.Get().PreviewFetchesTotal.WithLabelValues("blocked").Inc()
		logger.Log.Warn("Blocked preview fetch to non-public address", logger.WithURL(u.String()))
		err = fmt.Errorf("%w: %w", ErrInvalidURL, err)
	default:
		metrics.Get().PreviewFetchesTotal.WithLabelValues("error").Inc()
		logger.WarnWithFields("Preview fetch failed", err, logger.WithURL(u.String()), zap.String("operation", op))
	}
	return body, finalURL, err
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, nil, err
	}
	return body, resp.Request.URL, nil
}

// resolveImage makes a relative og:image absolute against the page it came from
func resolveImage(page *url.URL, image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	ref, err := url.Parse(image)
	if err != nil {
		return ""
	}
	if page == nil {
		return ref.String()
	}
	return page.ResolveReference(ref).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
