// Package gmail provides the Gmail REST client the email tools call.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const gmailAPIBaseURL = "https://gmail.googleapis.com/gmail/v1"

// DefaultQuery is the search used when the caller does not supply one:
// unread mail with the promotions and social categories filtered out.
const DefaultQuery = "is:unread -category:promotions -category:social"

// Client provides access to the Gmail API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Gmail client authenticated with accessToken.
func NewClient(accessToken string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &authTransport{
				accessToken: accessToken,
				base:        http.DefaultTransport,
			},
		},
		baseURL: gmailAPIBaseURL,
	}
}

// SetBaseURL points the client at a different API host. Test hook.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// authTransport adds the Authorization header to requests.
type authTransport struct {
	accessToken string
	base        http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.accessToken)
	return t.base.RoundTrip(req)
}

// doRequest performs an HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Message is a Gmail message.
type Message struct {
	ID           string       `json:"id"`
	ThreadID     string       `json:"threadId"`
	LabelIDs     []string     `json:"labelIds,omitempty"`
	Snippet      string       `json:"snippet,omitempty"`
	InternalDate string       `json:"internalDate,omitempty"`
	Payload      *MessagePart `json:"payload,omitempty"`
}

// MessagePart is one part of a message body tree.
type MessagePart struct {
	MIMEType string           `json:"mimeType,omitempty"`
	Headers  []MessageHeader  `json:"headers,omitempty"`
	Body     *MessagePartBody `json:"body,omitempty"`
	Parts    []*MessagePart   `json:"parts,omitempty"`
}

// MessageHeader is a single RFC 822 header.
type MessageHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MessagePartBody holds part content as base64url data.
type MessagePartBody struct {
	Size int    `json:"size,omitempty"`
	Data string `json:"data,omitempty"`
}

// ListMessagesResponse is the response from listing messages.
type ListMessagesResponse struct {
	Messages           []Message `json:"messages,omitempty"`
	NextPageToken      string    `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int       `json:"resultSizeEstimate,omitempty"`
}

// ListMessages lists message ids matching query.
func (c *Client) ListMessages(ctx context.Context, query string, maxResults int) (*ListMessagesResponse, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(maxResults))
	}

	path := "/users/me/messages"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp ListMessagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &resp, nil
}

// GetMessage retrieves a message by id in the given format ("full",
// "metadata", or "" for the API default).
func (c *Client) GetMessage(ctx context.Context, messageID, format string) (*Message, error) {
	path := fmt.Sprintf("/users/me/messages/%s", messageID)
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	return &msg, nil
}

// MarkAsRead removes the UNREAD label from a message.
func (c *Client) MarkAsRead(ctx context.Context, messageID string) error {
	payload := `{"removeLabelIds":["UNREAD"]}`
	path := fmt.Sprintf("/users/me/messages/%s/modify", messageID)
	_, err := c.doRequest(ctx, http.MethodPost, path, strings.NewReader(payload))
	return err
}

// SendResponse is the response from sending a message.
type SendResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// OutgoingMessage describes a message to send.
type OutgoingMessage struct {
	To      string
	Subject string
	Body    string
	Cc      string
	Bcc     string
	ReplyTo string // message id being replied to; sets In-Reply-To/References
}

// Send builds an RFC 2822 message and sends it via the Gmail API.
func (c *Client) Send(ctx context.Context, msg OutgoingMessage) (*SendResponse, error) {
	raw := EncodeRFC2822(msg)

	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/users/me/messages/send",
		strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &resp, nil
}

// EncodeRFC2822 renders an outgoing message as base64url raw content.
// The subject is B-encoded so non-ASCII subjects survive transport.
func EncodeRFC2822(msg OutgoingMessage) string {
	subject := fmt.Sprintf("=?utf-8?B?%s?=",
		base64.StdEncoding.EncodeToString([]byte(msg.Subject)))

	lines := []string{
		"To: " + msg.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: 8bit",
	}
	if msg.Cc != "" {
		lines = append(lines, "Cc: "+msg.Cc)
	}
	if msg.Bcc != "" {
		lines = append(lines, "Bcc: "+msg.Bcc)
	}
	if msg.ReplyTo != "" {
		lines = append(lines, "In-Reply-To: "+msg.ReplyTo, "References: "+msg.ReplyTo)
	}
	lines = append(lines, "", msg.Body)

	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(lines, "\r\n")))
}

// GetHeader extracts a header value from a message, case-insensitively.
func GetHeader(msg *Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// GetMessageBody extracts the first text/plain body from a message.
func GetMessageBody(msg *Message) string {
	if msg.Payload == nil {
		return ""
	}
	return getPartBody(msg.Payload, "text/plain")
}

// getPartBody recursively searches for a part with the given MIME type.
func getPartBody(part *MessagePart, mimeType string) string {
	if part.Body != nil && part.Body.Data != "" &&
		(part.MIMEType == mimeType || len(part.Parts) == 0 && part.MIMEType == "") {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			decoded, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
			if err != nil {
				return part.Body.Data
			}
		}
		return string(decoded)
	}
	for _, child := range part.Parts {
		if body := getPartBody(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// HasLabel reports whether the message carries the given label id.
func HasLabel(msg *Message, label string) bool {
	for _, l := range msg.LabelIDs {
		if l == label {
			return true
		}
	}
	return false
}
