package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"kbwatch/internal/domain"
)

// RunState is the explicit view of the remote run lifecycle. The service
// reports free-form statuses; everything is folded into this closed set so
// the polling loop is a pure function of (state, elapsed time).
type RunState string

const (
	RunStateCreated   RunState = "created"
	RunStateQueued    RunState = "queued"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// ParseRunState folds a service status string into a RunState. Unknown
// statuses count as still running; the deadline bounds them.
func ParseRunState(status string) RunState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "created":
		return RunStateCreated
	case "queued":
		return RunStateQueued
	case "in_progress", "running":
		return RunStateRunning
	case "completed":
		return RunStateCompleted
	case "failed", "cancelled", "expired", "incomplete":
		return RunStateFailed
	default:
		return RunStateRunning
	}
}

// Terminal reports whether polling can stop.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

const (
	defaultAssistantBaseURL = "https://api.openai.com/v1"
	defaultPollInterval     = time.Second
	defaultClassifyTimeout  = 60 * time.Second
)

// AssistantConfig configures an AssistantClient. Zero-valued optional
// fields get defaults; the timeout always ends up positive because the
// reference polling loop without one is a resource leak.
type AssistantConfig struct {
	APIKey      string
	AssistantID string
	BaseURL     string

	HTTPClient   *http.Client
	Clock        Clock
	PollInterval time.Duration
	Timeout      time.Duration
}

// AssistantClient drives the stateful assistant flow: create a thread, add
// the message, start a run, poll until terminal, read the first response.
type AssistantClient struct {
	apiKey       string
	assistantID  string
	baseURL      string
	httpClient   *http.Client
	clock        Clock
	pollInterval time.Duration
	timeout      time.Duration
}

func NewAssistantClient(cfg AssistantConfig) *AssistantClient {
	c := &AssistantClient{
		apiKey:       cfg.APIKey,
		assistantID:  cfg.AssistantID,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   cfg.HTTPClient,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
	}
	if c.baseURL == "" {
		c.baseURL = defaultAssistantBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.timeout <= 0 {
		c.timeout = defaultClassifyTimeout
	}
	return c
}

type assistantThread struct {
	ID string `json:"id"`
}

type assistantRun struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type assistantMessageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

type assistantErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Classify submits the message with the fixed instruction prefix and polls
// the run until it completes, fails, or the deadline passes.
func (c *AssistantClient) Classify(ctx context.Context, message string) (domain.Category, error) {
	var thread assistantThread
	if err := c.doJSON(ctx, http.MethodPost, "/threads", map[string]any{}, &thread); err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}

	msgBody := map[string]any{
		"role":    "user",
		"content": buildClassifyPrompt(message),
	}
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+thread.ID+"/messages", msgBody, nil); err != nil {
		return "", fmt.Errorf("adding message: %w", err)
	}

	var run assistantRun
	runBody := map[string]any{"assistant_id": c.assistantID}
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+thread.ID+"/runs", runBody, &run); err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}

	state, err := c.waitForRun(ctx, thread.ID, run.ID, ParseRunState(run.Status))
	if err != nil {
		return "", err
	}
	if state == RunStateFailed {
		return "", fmt.Errorf("run %s: %w", run.ID, domain.ErrClassifierFailure)
	}

	var msgs assistantMessageList
	if err := c.doJSON(ctx, http.MethodGet, "/threads/"+thread.ID+"/messages", nil, &msgs); err != nil {
		return "", fmt.Errorf("reading messages: %w", err)
	}
	for _, m := range msgs.Data {
		if m.Role != "assistant" {
			continue
		}
		for _, block := range m.Content {
			if block.Type == "text" {
				log.Printf("classifier assistant response=%q", block.Text.Value)
				return ParseLabel(block.Text.Value)
			}
		}
	}
	return "", fmt.Errorf("no assistant response in thread %s: %w", thread.ID, domain.ErrUnclassified)
}

// waitForRun polls the run state at a fixed interval until it is terminal
// or the deadline passes. The deadline is mandatory; the service offers no
// bound of its own.
func (c *AssistantClient) waitForRun(ctx context.Context, threadID, runID string, state RunState) (RunState, error) {
	deadline := c.clock.Now().Add(c.timeout)
	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if !c.clock.Now().Before(deadline) {
			return state, fmt.Errorf("run %s after %s: %w", runID, c.timeout, domain.ErrClassifierTimeout)
		}
		c.clock.Sleep(c.pollInterval)

		var run assistantRun
		if err := c.doJSON(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &run); err != nil {
			return state, fmt.Errorf("polling run: %w", err)
		}
		state = ParseRunState(run.Status)
	}
	return state, nil
}

func (c *AssistantClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assistant API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr assistantErrorBody
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != nil {
			return fmt.Errorf("assistant API status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("assistant API status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
