// Package courier talks to the messaging platform: fetching the inbox,
// posting replies, submitting announcement threads, and looking up
// individual messages. Every call is fallible and possibly slow; callers
// treat errors as "no confirmation received", never as proof the remote
// message failed.
package courier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Message represents a platform message or comment.
type Message struct {
	ID         string `json:"name"`
	Author     string `json:"author"`
	Body       string `json:"body"`
	ParentID   string `json:"parent_id"`
	ThreadID   string `json:"link_id"`
	Channel    string `json:"subreddit"`
	WasComment bool   `json:"was_comment"`
}

// Client is a wrapper for the platform HTTP API.
type Client struct {
	Token      string
	APIBase    string
	HTTPClient *http.Client
}

// NewClient creates a platform client. The timeout bounds every call so
// a stalled remote can only delay one command, not wedge the worker.
func NewClient(apiBase, token string) *Client {
	return &Client{
		Token:      token,
		APIBase:    apiBase,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (c *Client) get(path string, query url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", c.APIBase, path, query.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("platform API returned status: %s", resp.Status)
	}
	return decodeEnvelope(resp, out)
}

func (c *Client) post(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.APIBase+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("platform API returned status: %s", resp.Status)
	}
	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *http.Response, out any) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if !env.OK {
		return fmt.Errorf("platform API reported error: %s", env.Error)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Result, out)
}

// Inbox fetches unread messages newer than the given watermark id.
func (c *Client) Inbox(after string) ([]Message, error) {
	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	}
	var msgs []Message
	if err := c.get("/api/inbox", q, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Reply posts a comment under the given parent and returns the new
// comment's id.
func (c *Client) Reply(parentID, text string) (string, error) {
	var result struct {
		Name string `json:"name"`
	}
	err := c.post("/api/comment", map[string]any{
		"parent": parentID,
		"text":   text,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Name, nil
}

// Submit creates a new thread in a channel and returns its id.
func (c *Client) Submit(channel, title, text string) (string, error) {
	var result struct {
		Name string `json:"name"`
	}
	err := c.post("/api/submit", map[string]any{
		"sr":    channel,
		"title": title,
		"text":  text,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Name, nil
}

// Info looks up a single message by id. A nil message with no error
// means the platform no longer has it.
func (c *Client) Info(id string) (*Message, error) {
	q := url.Values{}
	q.Set("id", id)
	var msgs []Message
	if err := c.get("/api/info", q, &msgs); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}
