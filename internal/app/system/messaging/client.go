package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6/httpclient"
	"go.uber.org/zap"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// Config configures Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a Transport speaking the Slack Web API.
//
// Requests are not retried: a failed send is left for the next periodic
// pass, which owns the retry policy.
type Client struct {
	http    *httpclient.Client
	baseURL string
	token   string
	log     *zap.Logger
}

var _ Transport = (*Client)(nil)

// NewClient builds a Client.
func NewClient(cfg Config, log *zap.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetryCount(0),
		),
		baseURL: base,
		token:   cfg.Token,
		log:     log,
	}
}

// apiError is a response with ok=false.
type apiError struct {
	Method string
	Code   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("messaging: %s: %s", e.Method, e.Code)
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type openResponse struct {
	envelope
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

type userResponse struct {
	envelope
	User struct {
		ID       string `json:"id"`
		RealName string `json:"real_name"`
		TZ       string `json:"tz"`
		TZOffset *int   `json:"tz_offset"`
		Profile  struct {
			Email       string `json:"email"`
			RealName    string `json:"real_name"`
			DisplayName string `json:"display_name"`
		} `json:"profile"`
	} `json:"user"`
}

// SendDirectMessage opens (or reuses) the DM channel with userID and posts text.
func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	var open openResponse
	if err := c.post(ctx, "conversations.open", map[string]any{"users": userID}, &open); err != nil {
		return err
	}
	if open.Channel.ID == "" {
		return fmt.Errorf("messaging: conversations.open returned no channel for %s", userID)
	}

	var posted envelope
	if err := c.post(ctx, "chat.postMessage", map[string]any{
		"channel": open.Channel.ID,
		"text":    text,
	}, &posted); err != nil {
		return err
	}
	return nil
}

// LookupUserByEmail resolves an email to a workspace user.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) LookupResult {
	var resp userResponse
	err := c.get(ctx, "users.lookupByEmail", url.Values{"email": {email}}, &resp)
	if isNotFound(err) {
		return LookupResult{Kind: ResultNotFound}
	}
	if err != nil {
		c.log.Warn("directory lookup failed", zap.String("email", email), zap.Error(err))
		return LookupResult{Kind: ResultTransportError, Err: err}
	}
	name := resp.User.Profile.DisplayName
	if name == "" {
		name = firstNonEmpty(resp.User.Profile.RealName, resp.User.RealName)
	}
	return LookupResult{Kind: ResultOK, User: User{
		ID:          resp.User.ID,
		Email:       firstNonEmpty(resp.User.Profile.Email, email),
		DisplayName: name,
	}}
}

// FetchUserProfile returns the user's time zone metadata.
func (c *Client) FetchUserProfile(ctx context.Context, userID string) ProfileResult {
	var resp userResponse
	err := c.get(ctx, "users.info", url.Values{"user": {userID}}, &resp)
	if isNotFound(err) {
		return ProfileResult{Kind: ResultNotFound}
	}
	if err != nil {
		c.log.Warn("profile fetch failed", zap.String("user_id", userID), zap.Error(err))
		return ProfileResult{Kind: ResultTransportError, Err: err}
	}
	p := Profile{
		UTCOffset: resp.User.TZOffset,
		RealName:  firstNonEmpty(resp.User.Profile.RealName, resp.User.RealName),
	}
	if resp.User.TZ != "" {
		tz := resp.User.TZ
		p.TimeZone = &tz
	}
	return ProfileResult{Kind: ResultOK, Profile: p}
}

func (c *Client) post(ctx context.Context, method string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.do(req, method, out)
}

func (c *Client) get(ctx context.Context, method string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+method+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, method, out)
}

// do sends req and decodes the envelope into out, which must embed envelope.
func (c *Client) do(req *http.Request, method string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		// heimdall reports 5xx as an error alongside the response.
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("messaging: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("messaging: %s: read body: %w", method, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &apiError{Method: method, Code: "ratelimited"}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &apiError{Method: method, Code: resp.Status}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("messaging: %s: decode: %w", method, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("messaging: %s: decode: %w", method, err)
	}
	if !env.OK {
		return &apiError{Method: method, Code: env.Error}
	}
	return nil
}

func isNotFound(err error) bool {
	ae, ok := err.(*apiError)
	return ok && (ae.Code == "users_not_found" || ae.Code == "user_not_found")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
