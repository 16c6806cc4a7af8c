// Package api is the HTTP client used by the interactive chesstral client
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"chesstral/internal/client/display"
	"chesstral/internal/core"
)

const (
	defaultTimeout = 30 * time.Second
	// longPollTimeout covers the server-side wait plus transfer
	longPollTimeout = 35 * time.Second
	analysisTimeout = 5 * time.Minute
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

// APIError is returned for every non-2xx response
type APIError struct {
	Status int
	core.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.ErrorResponse.Error, e.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: longPollTimeout,
		},
		Out: os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) printf(format string, args ...any) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, format, args...)
	}
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	return c.do(method, path, body, result, defaultTimeout)
}

func (c *Client) do(method, path string, body any, result any, timeout time.Duration) error {
	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonData)
		bodyStr = string(jsonData)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.printf("\n%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
	if bodyStr != "" && c.Verbose {
		c.printf("%sRequest Body:%s\n%s\n", display.Cyan, display.Reset, indent([]byte(bodyStr)))
	}

	hc := *c.HTTPClient
	if timeout > 0 {
		hc.Timeout = timeout
	}
	resp, err := hc.Do(req)
	if err != nil {
		c.printf("%s[ERROR] %s%s\n", display.Red, err.Error(), display.Reset)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	statusColor := display.Green
	if resp.StatusCode >= 400 {
		statusColor = display.Red
	}
	c.printf("%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset)
	if c.Verbose && len(respBody) > 0 {
		c.printf("%sResponse Body:%s\n%s\n", display.Cyan, display.Reset, indent(respBody))
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr.ErrorResponse); err != nil {
			apiErr.ErrorResponse.Error = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	switch out := result.(type) {
	case nil:
	case *[]byte:
		*out = respBody
	default:
		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("response parse error: %w", err)
			}
		}
	}
	return nil
}

// indent pretty-prints JSON, leaving other bodies untouched
func indent(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

func sessionPath(id string, parts ...string) string {
	p := "/api/v1/sessions/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) Engines() (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.doRequest(http.MethodGet, "/api/v1/engines", nil, &resp)
	return resp, err
}

func (c *Client) ListSessions() ([]core.SessionResponse, error) {
	var resp []core.SessionResponse
	err := c.doRequest(http.MethodGet, "/api/v1/sessions", nil, &resp)
	return resp, err
}

func (c *Client) CreateSession(req *core.CreateSessionRequest) (*core.SessionResponse, error) {
	var resp core.SessionResponse
	err := c.doRequest(http.MethodPost, "/api/v1/sessions", req, &resp)
	return &resp, err
}

func (c *Client) GetSession(id string) (*core.SessionResponse, error) {
	var resp core.SessionResponse
	err := c.doRequest(http.MethodGet, sessionPath(id), nil, &resp)
	return &resp, err
}

// WaitSession long-polls until the session version differs from version
func (c *Client) WaitSession(id string, version uint64) (*core.SessionResponse, error) {
	var resp core.SessionResponse
	path := fmt.Sprintf("%s?wait=true&version=%d", sessionPath(id), version)
	err := c.do(http.MethodGet, path, nil, &resp, longPollTimeout)
	return &resp, err
}

func (c *Client) DeleteSession(id string) error {
	return c.doRequest(http.MethodDelete, sessionPath(id), nil, nil)
}

func (c *Client) session(method, id, action string, body any) (*core.SessionResponse, error) {
	var resp core.SessionResponse
	err := c.doRequest(method, sessionPath(id, action), body, &resp)
	return &resp, err
}

func (c *Client) Start(id string) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "start", nil)
}

func (c *Client) MakeMove(id, move string) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "moves", &core.MoveRequest{Move: move})
}

func (c *Client) RequestAIMove(id string) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "ai", nil)
}

func (c *Client) LoadPosition(id string, req *core.LoadPositionRequest) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "position", req)
}

// Navigate moves the cursor; index is only read by the goto action
func (c *Client) Navigate(id, action string, index int) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "navigate", &core.NavigateRequest{Action: action, Index: index})
}

func (c *Client) Continue(id string) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "continue", nil)
}

func (c *Client) SwitchSides(id string) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "switch", nil)
}

func (c *Client) SetSide(id, side string) (*core.SessionResponse, error) {
	return c.session(http.MethodPut, id, "side", &core.SideRequest{Side: side})
}

func (c *Client) SetEngine(id string, sel core.EngineSelection) (*core.SessionResponse, error) {
	return c.session(http.MethodPut, id, "engine", &core.EngineRequest{Engine: sel})
}

func (c *Client) Resign(id string) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "resign", nil)
}

func (c *Client) Reset(id string) (*core.SessionResponse, error) {
	return c.session(http.MethodPost, id, "reset", nil)
}

func (c *Client) Evaluate(id string) (*core.EvaluationInfo, error) {
	var resp core.EvaluationInfo
	err := c.doRequest(http.MethodGet, sessionPath(id, "evaluation"), nil, &resp)
	return &resp, err
}

func (c *Client) Commentary(id string) ([]core.CommentaryInfo, error) {
	var resp []core.CommentaryInfo
	err := c.doRequest(http.MethodGet, sessionPath(id, "commentary"), nil, &resp)
	return resp, err
}

func (c *Client) MarkReviewed(id string, index int) error {
	return c.doRequest(http.MethodPost, sessionPath(id, "commentary", fmt.Sprint(index), "review"), nil, nil)
}

func (c *Client) Rate(id string, index int, req *core.RateRequest) (*RatingResponse, error) {
	var resp RatingResponse
	err := c.doRequest(http.MethodPost, sessionPath(id, "commentary", fmt.Sprint(index), "rating"), req, &resp)
	return &resp, err
}

func (c *Client) Analyze(id string) (*AnalysisResponse, error) {
	var resp AnalysisResponse
	err := c.do(http.MethodGet, sessionPath(id, "analysis"), nil, &resp, analysisTimeout)
	return &resp, err
}

func (c *Client) GetBoard(id string) (*core.BoardResponse, error) {
	var resp core.BoardResponse
	err := c.doRequest(http.MethodGet, sessionPath(id, "board"), nil, &resp)
	return &resp, err
}

// GetBoardSVG returns the raw SVG document for the displayed position
func (c *Client) GetBoardSVG(id string) ([]byte, error) {
	var body []byte
	err := c.doRequest(http.MethodGet, sessionPath(id, "board")+"?format=svg", nil, &body)
	return body, err
}

func (c *Client) Opening(id string) (*core.OpeningResponse, error) {
	var resp core.OpeningResponse
	err := c.doRequest(http.MethodGet, sessionPath(id, "opening"), nil, &resp)
	return &resp, err
}

// RawRequest performs a raw HTTP request for debugging purposes
func (c *Client) RawRequest(method, path string, body string) error {
	var bodyData any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			bodyData = body
		}
	}
	c.Verbose = true
	return c.doRequest(strings.ToUpper(method), path, bodyData, nil)
}
