package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"video-beeper/domain/submission"
)

// Defaults for the processing service
const (
	DefaultBaseURL      = "http://localhost:8000"
	DefaultEndpointPath = "/process-video/"
	userAgent           = "video-beeper/1.0"
	maxErrorBody        = 4 << 10
)

// Client implements submission.Processor against the processing service's
// HTTP endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for auth or testing)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for POST {baseURL}{endpointPath}.
// Request time is bounded by the caller's context, not the HTTP client.
func NewClient(baseURL, endpointPath string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(endpointPath) == "" {
		endpointPath = DefaultEndpointPath
	}
	endpoint, err := buildEndpoint(baseURL, endpointPath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func buildEndpoint(baseURL, endpointPath string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid backend url %q: host is required", baseURL)
	}
	// keep the trailing slash; the service routes /process-video/ exactly
	return strings.TrimRight(u.String(), "/") + "/" + strings.TrimLeft(endpointPath, "/"), nil
}

// Endpoint returns the full URL requests are sent to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// processResponse mirrors the JSON body. Audio is a pointer so a missing
// field can be told apart from empty audio.
type processResponse struct {
	Audio         *string  `json:"audio"`
	AudioEncoding string   `json:"audio_encoding"`
	ProfaneWords  []string `json:"profane_words"`
}

// Process implements submission.Processor
func (c *Client) Process(ctx context.Context, req submission.Request) (*submission.Payload, error) {
	if req.File == nil {
		return nil, errors.New("backend: file is required")
	}

	body, contentType := c.multipartBody(req)
	defer body.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	c.logger.Debug("posting video",
		slog.String("request_id", req.RequestID),
		slog.String("endpoint", c.endpoint),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &submission.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("backend returned error status",
			slog.String("request_id", req.RequestID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", strings.TrimSpace(string(snippet))),
		)
		return nil, &submission.TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &submission.TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	return decodeResponse(raw)
}

func decodeResponse(raw []byte) (*submission.Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &submission.DecodeError{Err: errors.New("response is not a JSON object")}
	}

	var parsed processResponse
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return nil, &submission.DecodeError{Err: fmt.Errorf("parse response JSON: %w", err)}
	}
	if parsed.Audio == nil {
		return nil, &submission.DecodeError{Err: errors.New("response missing audio field")}
	}

	words := parsed.ProfaneWords
	if words == nil {
		words = []string{}
	}
	return &submission.Payload{
		Audio:         *parsed.Audio,
		AudioEncoding: parsed.AudioEncoding,
		ProfaneWords:  words,
	}, nil
}

// multipartBody streams the form through a pipe so large videos are not
// buffered in memory. Field order matches the service: file, then threshold.
func (c *Client) multipartBody(req submission.Request) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(mw, req))
	}()

	return pr, mw.FormDataContentType()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeForm(mw *multipart.Writer, req submission.Request) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.File.Name())))
	header.Set("Content-Type", req.File.MIMEType())

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}

	src, err := req.File.Open()
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("write video: %w", err)
	}

	if err := mw.WriteField("threshold", req.Threshold.String()); err != nil {
		return fmt.Errorf("write threshold: %w", err)
	}

	return mw.Close()
}

// Ensure Client implements submission.Processor
var _ submission.Processor = (*Client)(nil)
