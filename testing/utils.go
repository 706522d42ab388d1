package e2etesting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"

	"github.com/stretchr/testify/require"
)

type RequestOptions struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	Cookies []*http.Cookie
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) GetJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

func (r *Response) GetString() string {
	return string(r.Body)
}

func (r *Response) AssertStatus(t *testing.T, expectedStatus int) {
	t.Helper()
	require.Equal(t, expectedStatus, r.StatusCode, "unexpected status code. Response: %s", r.GetString())
}

func (r *Response) AssertRedirect(t *testing.T, expectedLocation string) {
	t.Helper()
	require.True(t, r.StatusCode >= 300 && r.StatusCode < 400, "expected redirect status code")
	require.Equal(t, expectedLocation, r.Header.Get("Location"))
}

// Data unwraps the "data" envelope of an API response.
func (r *Response) Data(t *testing.T) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, r.GetJSON(&body), "response is not valid JSON: %s", r.GetString())

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data envelope: %s", r.GetString())
	return data
}

type HTTPClient struct {
	Client  *http.Client
	BaseURL string
}

func (c *HTTPClient) Get(path string) (*Response, error) {
	return c.Request(&RequestOptions{
		Method: "GET",
		Path:   path,
	})
}

func (c *HTTPClient) Post(path string, body any) (*Response, error) {
	return c.Request(&RequestOptions{
		Method: "POST",
		Path:   path,
		Body:   body,
	})
}

func (c *HTTPClient) Request(opts *RequestOptions) (*Response, error) {
	fullURL := c.BaseURL + opts.Path

	var bodyReader io.Reader
	contentType := ""

	if opts.Body != nil {
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}

	req, err := http.NewRequest(opts.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	for _, cookie := range opts.Cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     body,
	}, nil
}

// WithCookieJar returns a client that carries cookies across requests, the
// way a browser would.
func (c *HTTPClient) WithCookieJar() *HTTPClient {
	jar, _ := cookiejar.New(nil)
	newClient := &http.Client{
		Timeout: c.Client.Timeout,
		Jar:     jar,
	}

	return &HTTPClient{
		Client:  newClient,
		BaseURL: c.BaseURL,
	}
}

// WithoutRedirects returns a client that reports 3xx responses instead of
// following them.
func (c *HTTPClient) WithoutRedirects() *HTTPClient {
	newClient := &http.Client{
		Timeout: c.Client.Timeout,
		Jar:     c.Client.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &HTTPClient{
		Client:  newClient,
		BaseURL: c.BaseURL,
	}
}
