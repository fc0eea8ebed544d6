// client.go contains the logic for talking to a PHPMarietje instance: a
// form login that leaves a session cookie behind and the request page
// that lists who uploaded what.

package marietje

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"marietje-uploads/internal/components/assert"
	"marietje-uploads/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_client_login_username_password = "client.login-username-password"
	report_client_requests_page           = "client.requests-page"
)

var tracer = otel.Tracer("marietje-uploads/scrapers/marietje")

// ErrLoginFailed means the server answered the login form with its
// failure message.
var ErrLoginFailed = errors.New("could not login")

const (
	DefaultBaseUrl       = "http://noordslet.science.ru.nl"
	DefaultLoginPath     = "/login.php"
	DefaultRequestsPath  = "/request.php"
	DefaultFailureMarker = "Could not login."
)

type ClientOptions struct {
	BaseUrl       string
	LoginPath     string
	RequestsPath  string
	FailureMarker string

	Timeout time.Duration
	// requests per second, 0 disables the limit
	RateLimit float64
	// CloudflareBypass makes the transport look like a regular browser
	CloudflareBypass bool
	// Dump receives full HTTP exchanges when it is not nil
	Dump telemetry.MessageOutput
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.LoginPath == "" {
		o.LoginPath = DefaultLoginPath
	}
	if o.RequestsPath == "" {
		o.RequestsPath = DefaultRequestsPath
	}
	if o.FailureMarker == "" {
		o.FailureMarker = DefaultFailureMarker
	}
	if o.Timeout == 0 {
		o.Timeout = time.Second * 30
	}
	return o
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	opts ClientOptions
	tel  telemetry.API
}

// NewClient creates a client with an empty cookie jar, nothing is sent
// over the network until LoginUsernamePassword is called.
func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("marietje_scraper", tel)
	opts = opts.withDefaults()

	parsedBaseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimSuffix(opts.BaseUrl, "/"))
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	if opts.RateLimit > 0 {
		// max burst >= 1 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Dump)

	c := &Client{
		BaseUrl: parsedBaseUrl,
		Http:    httpClient,
		opts:    opts,
		tel:     tel,
	}
	return c, nil
}

// RequestsUrl is the absolute url of the requests page.
func (c *Client) RequestsUrl() string {
	return c.BaseUrl.JoinPath(c.opts.RequestsPath).String()
}

// LoginUsernamePassword posts the login form, on success the session
// cookie is kept in the client's cookie jar. It returns ErrLoginFailed
// when the server rejects the credentials.
func (c *Client) LoginUsernamePassword(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:LoginUsernamePassword")
	defer span.End()

	loginError := func(err error) error {
		return fmt.Errorf("marietje scraper: login failed: %w", err)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"login":    username,
			"password": password,
		}).
		Post(c.opts.LoginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		c.tel.ReportBroken(
			report_client_login_username_password,
			fmt.Errorf("login request: %w", err),
		)
		return loginError(err)
	}

	if strings.Contains(res.String(), c.opts.FailureMarker) {
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		c.tel.ReportWarning(
			report_client_login_username_password,
			ErrLoginFailed,
			username,
		)
		return loginError(ErrLoginFailed)
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_login_username_password, err)
		return loginError(err)
	}

	return nil
}

// RequestsPage fetches the page listing the upload requests, the client
// must be logged in.
func (c *Client) RequestsPage(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:RequestsPage")
	defer span.End()

	c.tel.ReportDebug("get requests page", c.opts.RequestsPath)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.opts.RequestsPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		c.tel.ReportBroken(
			report_client_requests_page,
			fmt.Errorf("fetch: %w", err),
		)
		return "", fmt.Errorf("marietje scraper: fetch requests page: %w", err)
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_requests_page, err)
		return "", fmt.Errorf("marietje scraper: fetch requests page: %w", err)
	}

	body := res.String()
	span.SetAttributes(attribute.Int("response.length", len(body)))
	return body, nil
}
