package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"
)

// DefaultTimeout bounds every request, including reading the body.
const DefaultTimeout = 60 * time.Second

// ClientOptions configures a Client.
type ClientOptions struct {
	APIURL    string        // default DefaultAPIURL
	Repo      string        // "owner/repo", default DefaultRepo
	Token     string        // optional bearer token
	Timeout   time.Duration // default DefaultTimeout
	UserAgent string
}

// Client queries the release index and downloads release assets.
type Client struct {
	rc   *resty.Client
	api  string
	repo string
}

// NewClient creates a Client. No request is made until a method is called.
func NewClient(opts ClientOptions) (*Client, error) {
	repo, err := ParseRepo(opts.Repo)
	if err != nil {
		return nil, err
	}
	api := strings.TrimRight(opts.APIURL, "/")
	if api == "" {
		api = DefaultAPIURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "specrow"
	}

	rc := resty.New().
		SetBaseURL(api).
		SetTimeout(timeout).
		SetHeader("User-Agent", ua)
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}

	return &Client{rc: rc, api: api, repo: repo}, nil
}

// Repo returns the "owner/repo" this client reads releases from.
func (c *Client) Repo() string { return c.repo }

// Close releases idle connections.
func (c *Client) Close() error {
	return c.rc.Close()
}

// ListReleases returns the release index, most recent first as served.
func (c *Client) ListReleases(ctx context.Context) ([]Release, error) {
	path := "/repos/" + c.repo + "/releases"
	var releases []Release

	res, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.github+json").
		SetResult(&releases).
		Get(path)
	if err != nil {
		return nil, &TransferError{URL: c.api + path, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &TransferError{
			URL:        c.api + path,
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
			RateLimit:  parseRateLimit(res.Header()),
		}
	}
	return releases, nil
}

// Download streams the asset at url into w. Any status other than 200 is a
// *TransferError; nothing is written in that case.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	res, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "application/octet-stream").
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, &TransferError{URL: url, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode() != http.StatusOK {
		return 0, &TransferError{
			URL:        url,
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
			RateLimit:  parseRateLimit(res.Header()),
		}
	}

	n, err := io.Copy(w, res.Body)
	if err != nil {
		return n, &TransferError{URL: url, Err: fmt.Errorf("streaming body: %w", err)}
	}
	return n, nil
}
