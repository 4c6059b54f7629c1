package videogen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelay-dev/reelay/internal/infra"
)

// Options configures the video generation client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	Polling        PollingPolicy
	Backoff        BackoffPolicy
}

// Client drives long-running video generations against the hosted API. One
// call creates the remote operation, follow-up status checks watch it until
// the service reports a terminal state. The client holds no mutable state
// and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	polling    PollingPolicy
	backoff    BackoffPolicy
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters map[string]any    `json:"parameters,omitempty"`
}

type predictInstance struct {
	Prompt string       `json:"prompt"`
	Image  *inlineImage `json:"image,omitempty"`
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType,omitempty"`
}

type operationEnvelope struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Response *operationResponse `json:"response,omitempty"`
	Error    *operationError    `json:"error,omitempty"`
}

type operationResponse struct {
	GenerateVideoResponse struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}

type operationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

type errorResponse struct {
	Error operationError `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "veo-2.0-generate-001"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		polling:    opts.Polling,
		backoff:    opts.Backoff,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit validates the request locally and creates a remote generation
// operation. Exactly one HTTP call is made; any failure is returned
// immediately without retries.
func (c *Client) Submit(ctx context.Context, req GenerationRequest) (*Operation, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" && req.SourceMedia == nil {
		return nil, &ValidationError{Field: "prompt", Reason: "prompt or source media is required"}
	}
	if req.SourceMedia != nil && len(req.SourceMedia.Data) == 0 {
		return nil, &ValidationError{Field: "source_media", Reason: "source media data is empty"}
	}

	instance := predictInstance{Prompt: prompt}
	if req.SourceMedia != nil {
		instance.Image = &inlineImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.SourceMedia.Data),
			MimeType:           req.SourceMedia.MIMEType,
		}
	}
	payload := predictRequest{
		Instances:  []predictInstance{instance},
		Parameters: req.Parameters,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("videogen: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("videogen: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransport(ctx, "submit request", err, "")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read submit response", Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, remoteErrorFromBody(resp.StatusCode, raw)
	}
	var decoded operationEnvelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("videogen: decode submit response: %w", err)
	}
	name := strings.TrimSpace(decoded.Name)
	if name == "" {
		return nil, errors.New("videogen: submit response missing operation name")
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("operation_id", name).
		Msg("videogen: operation submitted")
	return &Operation{ID: name, State: StatePending}, nil
}

// Check fetches the remote state of an operation once. The returned
// operation may still be pending; no waiting or retrying happens here.
func (c *Client) Check(ctx context.Context, operationID string) (*Operation, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	id := strings.TrimSpace(operationID)
	if id == "" {
		return nil, &ValidationError{Field: "operation_id", Reason: "operation id is required"}
	}
	env, err := c.getOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	return operationFromEnvelope(id, env)
}

// AwaitCompletion polls the operation until it reaches a terminal state or
// the polling budget runs out. Once polling has started the returned
// operation is always non-nil and terminal; when it is FAILED the same error
// is also returned so call sites keep the usual error check. Transient poll
// failures are retried with backoff inside the wall-clock budget; the remote
// job itself is never cancelled.
func (c *Client) AwaitCompletion(ctx context.Context, operationID string, policy PollingPolicy) (*Operation, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	id := strings.TrimSpace(operationID)
	if id == "" {
		return nil, &ValidationError{Field: "operation_id", Reason: "operation id is required"}
	}
	policy = policy.resolve(c.polling)
	backoff := c.backoff.normalized(policy.Interval)

	start := time.Now()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return c.failed(id, &CancelledError{OperationID: id, Err: ctx.Err()})
		default:
		}
		if elapsed := time.Since(start); elapsed >= policy.MaxWait {
			return c.failed(id, &TimeoutError{OperationID: id, Elapsed: elapsed, Budget: policy.MaxWait})
		}

		env, err := c.getOperation(ctx, id)
		if err == nil {
			var op *Operation
			op, err = operationFromEnvelope(id, env)
			if err == nil {
				if op.State == StateDone {
					c.logger.Debug().
						Str("operation_id", id).
						Dur("elapsed", time.Since(start)).
						Msg("videogen: operation done")
					return op, nil
				}
				if op.State == StateFailed {
					c.logger.Debug().
						Err(op.Err).
						Str("operation_id", id).
						Msg("videogen: operation failed")
					return op, op.Err
				}
				failures = 0
				if werr := c.wait(ctx, policy.Interval); werr != nil {
					return c.failed(id, &CancelledError{OperationID: id, Err: werr})
				}
				continue
			}
		}
		if backoff.retryable(err) {
			failures++
			delay := backoff.Delay(failures)
			c.logger.Warn().
				Err(err).
				Str("operation_id", id).
				Int("failures", failures).
				Dur("delay", delay).
				Msg("videogen: transient status failure")
			if werr := c.wait(ctx, delay); werr != nil {
				return c.failed(id, &CancelledError{OperationID: id, Err: werr})
			}
			continue
		}
		return c.failed(id, err)
	}
}

// GenerateAndWait submits the request and blocks until the resulting
// operation reaches a terminal state.
func (c *Client) GenerateAndWait(ctx context.Context, req GenerationRequest, policy PollingPolicy) (*Operation, error) {
	op, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.AwaitCompletion(ctx, op.ID, policy)
}

func (c *Client) getOperation(ctx context.Context, id string) (*operationEnvelope, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(id, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("videogen: build status request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransport(ctx, "status request", err, id)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read status response", Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, remoteErrorFromBody(resp.StatusCode, raw)
	}
	var decoded operationEnvelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("videogen: decode status response: %w", err)
	}
	return &decoded, nil
}

func (c *Client) failed(id string, err error) (*Operation, error) {
	c.logger.Debug().Err(err).Str("operation_id", id).Msg("videogen: wait ended without completion")
	return &Operation{ID: id, State: StateFailed, Err: err}, err
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// operationFromEnvelope maps a status reply onto the local state machine.
// A done envelope is terminal: an error payload means FAILED, a result
// locator means DONE, neither means FAILED with a diagnostic. An error
// payload on a not-done envelope is returned as a RemoteError so the poll
// loop can classify it as transient or terminal.
func operationFromEnvelope(id string, env *operationEnvelope) (*Operation, error) {
	op := &Operation{ID: id, State: StatePending}
	remoteErr := env.remoteError()
	if !env.Done {
		if remoteErr != nil {
			return nil, remoteErr
		}
		return op, nil
	}
	if remoteErr != nil {
		op.State = StateFailed
		op.Err = remoteErr
		return op, nil
	}
	if uri := env.firstVideoURI(); uri != "" {
		op.State = StateDone
		op.Result = uri
		return op, nil
	}
	op.State = StateFailed
	op.Err = &RemoteError{Message: "operation finished without result or error"}
	return op, nil
}

func (env *operationEnvelope) remoteError() *RemoteError {
	if env.Error == nil {
		return nil
	}
	if env.Error.Message == "" && env.Error.Code == 0 && env.Error.Status == "" {
		return nil
	}
	code := env.Error.Status
	if code == "" {
		code = grpcStatusNames[env.Error.Code]
	}
	return &RemoteError{Code: code, Message: env.Error.Message}
}

func (env *operationEnvelope) firstVideoURI() string {
	if env.Response == nil {
		return ""
	}
	for _, sample := range env.Response.GenerateVideoResponse.GeneratedSamples {
		if uri := strings.TrimSpace(sample.Video.URI); uri != "" {
			return uri
		}
	}
	return ""
}

func remoteErrorFromBody(statusCode int, raw []byte) error {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
		return &RemoteError{StatusCode: statusCode, Code: detail.Error.Status, Message: detail.Error.Message}
	}
	return &RemoteError{StatusCode: statusCode, Message: strings.TrimSpace(string(raw))}
}

// wrapTransport classifies a failed HTTP exchange. Only the caller's context
// marks cancellation; an expired per-call timeout is a transport failure.
func wrapTransport(ctx context.Context, op string, err error, operationID string) error {
	if cerr := ctx.Err(); cerr != nil {
		return &CancelledError{OperationID: operationID, Err: cerr}
	}
	return &TransportError{Op: op, Err: err}
}

var grpcStatusNames = map[int]string{
	4:  "DEADLINE_EXCEEDED",
	5:  "NOT_FOUND",
	8:  "RESOURCE_EXHAUSTED",
	13: "INTERNAL",
	14: "UNAVAILABLE",
}
