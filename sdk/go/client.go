package tillersdk

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
)

// Client is a minimal Tiller HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Commitment represents the API commitment model.
type Commitment struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Direction     string  `json:"direction"`
	Status        string  `json:"status"`
	Counterparty  string  `json:"counterparty,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
	CreatedAt     string  `json:"created_at"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	PriorityScore int     `json:"priority_score"`
	ProjectID     *string `json:"project_id,omitempty"`
}

// Entry represents a journal entry, optionally a decision.
type Entry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body,omitempty"`
	OccurredAt  string  `json:"occurred_at"`
	IsDecision  bool    `json:"is_decision"`
	Rationale   string  `json:"rationale,omitempty"`
	Confidence  *int    `json:"confidence,omitempty"`
	Stakes      *string `json:"stakes,omitempty"`
	ReviewDate  *string `json:"review_date,omitempty"`
	Outcome     *string `json:"outcome,omitempty"`
	OutcomeDate *string `json:"outcome_date,omitempty"`
	ProjectID   *string `json:"project_id,omitempty"`
}

// QuestionAnswer is one answered reflection question.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Reflection represents a recorded reflection.
type Reflection struct {
	ID                     string           `json:"id"`
	ReflectionType         string           `json:"reflection_type"`
	PeriodType             *string          `json:"period_type,omitempty"`
	CreatedAt              string           `json:"created_at"`
	Mood                   *string          `json:"mood,omitempty"`
	Tags                   []string         `json:"tags,omitempty"`
	Answers                []QuestionAnswer `json:"answers"`
	GeneratedCommitmentIDs []string         `json:"generated_commitment_ids,omitempty"`
	ProjectID              *string          `json:"project_id,omitempty"`
}

// FollowUp is a commitment to create alongside a reflection.
type FollowUp struct {
	Title        string  `json:"title"`
	Direction    string  `json:"direction,omitempty"`
	Counterparty *string `json:"counterparty,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	ProjectID    *string `json:"project_id,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateCommitment creates a commitment.
func (c *Client) CreateCommitment(ctx context.Context, title, direction string, dueDate *string, priorityScore int) (Commitment, error) {
	body := map[string]any{
		"title":          title,
		"direction":      direction,
		"priority_score": priorityScore,
	}
	if dueDate != nil {
		body["due_date"] = *dueDate
	}
	var resp Commitment
	err := c.do(ctx, http.MethodPost, "v0/commitments", body, &resp)
	return resp, err
}

// CompleteCommitment marks a commitment done.
func (c *Client) CompleteCommitment(ctx context.Context, id string) (Commitment, error) {
	var resp Commitment
	endpoint := fmt.Sprintf("v0/commitments/%s/complete", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// DropCommitment drops a commitment.
func (c *Client) DropCommitment(ctx context.Context, id string) (Commitment, error) {
	var resp Commitment
	endpoint := fmt.Sprintf("v0/commitments/%s/drop", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Commitments lists commitments, optionally filtered by status.
func (c *Client) Commitments(ctx context.Context, status string) ([]Commitment, error) {
	endpoint := "v0/commitments"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Commitment
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateEntry creates a journal entry from an arbitrary payload.
func (c *Client) CreateEntry(ctx context.Context, payload map[string]any) (Entry, error) {
	var resp Entry
	err := c.do(ctx, http.MethodPost, "v0/entries", payload, &resp)
	return resp, err
}

// ReviewDecision records a decision outcome.
func (c *Client) ReviewDecision(ctx context.Context, id, outcome string) (Entry, error) {
	var resp Entry
	endpoint := fmt.Sprintf("v0/entries/%s/review", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"outcome": outcome}, &resp)
	return resp, err
}

// CreateReflection records a reflection with optional follow-ups.
func (c *Client) CreateReflection(ctx context.Context, reflectionType string, answers []QuestionAnswer, tags []string, followUps []FollowUp) (Reflection, error) {
	body := map[string]any{
		"reflection_type": reflectionType,
		"answers":         answers,
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	if len(followUps) > 0 {
		body["follow_ups"] = followUps
	}
	var resp Reflection
	err := c.do(ctx, http.MethodPost, "v0/reflections", body, &resp)
	return resp, err
}

// Dashboard returns the attention dashboard as a generic document.
func (c *Client) Dashboard(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	err := c.do(ctx, http.MethodGet, "v0/dashboard", nil, &resp)
	return resp, err
}

// Insights returns the longitudinal insight report as a generic document.
func (c *Client) Insights(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	err := c.do(ctx, http.MethodGet, "v0/insights", nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// DevLogin mints a bearer token from the dev login endpoint and stores it
// on the client.
func (c *Client) DevLogin(ctx context.Context, subject string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "v0/auth/dev/login", map[string]any{"subject": subject}, &resp)
	if err != nil {
		return "", err
	}
	c.BearerToken = resp.Token
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
