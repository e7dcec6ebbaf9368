// Package client talks to the quiz server's JSON API on behalf of a
// test-taker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/englishquiz/internal/model"
)

// Client is a quiz API client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil hc gets a client
// with a 10 second timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// FetchQuestions loads the question set. An empty set is reported as
// model.ErrNoQuestions.
func (c *Client) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/questions", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w: %w", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.ErrNoQuestions
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("fetch questions", resp)
	}

	var qs []model.Question
	if err := json.NewDecoder(resp.Body).Decode(&qs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, model.ErrNoQuestions
	}
	return qs, nil
}

// Submit posts a finished attempt and returns the server's record of it,
// including the authoritative score.
func (c *Client) Submit(ctx context.Context, sub model.SubmissionRequest) (model.SubmissionCreated, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return model.SubmissionCreated{}, fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submissions", bytes.NewReader(body))
	if err != nil {
		return model.SubmissionCreated{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.SubmissionCreated{}, fmt.Errorf("submit: %w: %w", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return model.SubmissionCreated{}, apiError("submit", resp)
	}
	var out struct {
		Submission model.SubmissionCreated `json:"submission"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.SubmissionCreated{}, fmt.Errorf("decode submission: %w", err)
	}
	return out.Submission, nil
}

// apiError turns a non-success response into an error in the taxonomy,
// carrying the server's message when there is one.
func apiError(op string, resp *http.Response) error {
	msg := resp.Status
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		kind = model.ErrValidation
	case resp.StatusCode == http.StatusUnauthorized:
		kind = model.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		kind = model.ErrNoQuestions
	default:
		kind = model.ErrUnavailable
	}
	return fmt.Errorf("%s: %w: %s", op, kind, msg)
}
