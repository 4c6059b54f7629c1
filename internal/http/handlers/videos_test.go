package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/reelay-dev/reelay/internal/enhance"
	"github.com/reelay-dev/reelay/internal/middleware"
	"github.com/reelay-dev/reelay/internal/videogen"
)

type fakeVideoClient struct {
	submit   func(ctx context.Context, req videogen.GenerationRequest) (*videogen.Operation, error)
	check    func(ctx context.Context, id string) (*videogen.Operation, error)
	generate func(ctx context.Context, req videogen.GenerationRequest, policy videogen.PollingPolicy) (*videogen.Operation, error)

	checks int
}

func (f *fakeVideoClient) Submit(ctx context.Context, req videogen.GenerationRequest) (*videogen.Operation, error) {
	if f.submit == nil {
		return nil, errors.New("unexpected Submit call")
	}
	return f.submit(ctx, req)
}

func (f *fakeVideoClient) Check(ctx context.Context, id string) (*videogen.Operation, error) {
	f.checks++
	if f.check == nil {
		return nil, errors.New("unexpected Check call")
	}
	return f.check(ctx, id)
}

func (f *fakeVideoClient) GenerateAndWait(ctx context.Context, req videogen.GenerationRequest, policy videogen.PollingPolicy) (*videogen.Operation, error) {
	if f.generate == nil {
		return nil, errors.New("unexpected GenerateAndWait call")
	}
	return f.generate(ctx, req, policy)
}

type fakeEnhancer struct {
	res  *enhance.EnhanceResponse
	err  error
	last enhance.EnhanceRequest
}

func (f *fakeEnhancer) Enhance(_ context.Context, req enhance.EnhanceRequest) (*enhance.EnhanceResponse, error) {
	f.last = req
	return f.res, f.err
}

type fakeCache struct {
	store  map[string]string
	getErr error
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.store[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string) error {
	if f.store == nil {
		f.store = map[string]string{}
	}
	f.store[key] = value
	return nil
}

func newTestApp(videos VideoClient) *App {
	return NewApp(videos, nil, zerolog.Nop())
}

func decodePayload(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return payload.Error.Code
}

func TestVideosCreateAcceptsAsync(t *testing.T) {
	var got videogen.GenerationRequest
	app := newTestApp(&fakeVideoClient{
		submit: func(_ context.Context, req videogen.GenerationRequest) (*videogen.Operation, error) {
			got = req
			return &videogen.Operation{ID: "op-1", State: videogen.StatePending}, nil
		},
	})

	body := `{"prompt":"a red fox in snow","parameters":{"aspectRatio":"16:9"}}`
	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	if rr.Code != 202 {
		t.Fatalf("unexpected status code: got %d, want 202", rr.Code)
	}
	if got.Prompt != "a red fox in snow" {
		t.Fatalf("prompt not forwarded: %q", got.Prompt)
	}
	if got.Parameters["aspectRatio"] != "16:9" {
		t.Fatalf("parameters not forwarded: %#v", got.Parameters)
	}

	payload := decodePayload(t, rr)
	if payload["operation_id"] != "op-1" {
		t.Fatalf("expected operation_id op-1, got %#v", payload["operation_id"])
	}
	if payload["state"] != "PENDING" {
		t.Fatalf("expected state PENDING, got %#v", payload["state"])
	}
}

func TestVideosCreateRejectsInvalidJSON(t *testing.T) {
	app := newTestApp(&fakeVideoClient{})

	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader("{"))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
	if code := errorCode(t, rr); code != "bad_request" {
		t.Fatalf("expected bad_request, got %q", code)
	}
}

func TestVideosCreateRejectsBadBase64(t *testing.T) {
	app := newTestApp(&fakeVideoClient{})

	body := `{"prompt":"x","source_image_base64":"!!not-base64!!"}`
	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
}

func TestVideosCreateDecodesSourceImage(t *testing.T) {
	var got videogen.GenerationRequest
	app := newTestApp(&fakeVideoClient{
		submit: func(_ context.Context, req videogen.GenerationRequest) (*videogen.Operation, error) {
			got = req
			return &videogen.Operation{ID: "op-1", State: videogen.StatePending}, nil
		},
	})

	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	body := `{"prompt":"animate this","source_image_base64":"` +
		base64.StdEncoding.EncodeToString(raw) + `","source_image_mime":"image/png"}`
	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	if rr.Code != 202 {
		t.Fatalf("unexpected status code: got %d, want 202", rr.Code)
	}
	if got.SourceMedia == nil {
		t.Fatal("expected source media on the request")
	}
	if string(got.SourceMedia.Data) != string(raw) {
		t.Fatalf("source media bytes mangled: %v", got.SourceMedia.Data)
	}
	if got.SourceMedia.MIMEType != "image/png" {
		t.Fatalf("expected mime image/png, got %q", got.SourceMedia.MIMEType)
	}
}

func TestVideosCreateMapsSubmitErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{
			name:     "validation",
			err:      &videogen.ValidationError{Field: "request.prompt", Reason: "prompt or source media required"},
			wantCode: 400,
			wantKind: "bad_request",
		},
		{
			name:     "missing credentials",
			err:      videogen.ErrMissingAPIKey,
			wantCode: 503,
			wantKind: "credentials_missing",
		},
		{
			name:     "transport",
			err:      &videogen.TransportError{Op: "create request", Err: errors.New("connection refused")},
			wantCode: 502,
			wantKind: "upstream_unreachable",
		},
		{
			name:     "remote rejection",
			err:      &videogen.RemoteError{StatusCode: 400, Code: "INVALID_ARGUMENT", Message: "bad prompt"},
			wantCode: 502,
			wantKind: "upstream_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&fakeVideoClient{
				submit: func(context.Context, videogen.GenerationRequest) (*videogen.Operation, error) {
					return nil, tc.err
				},
			})

			req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(`{"prompt":"x"}`))
			rr := httptest.NewRecorder()

			app.VideosCreate(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("unexpected status code: got %d, want %d", rr.Code, tc.wantCode)
			}
			if code := errorCode(t, rr); code != tc.wantKind {
				t.Fatalf("expected %q, got %q", tc.wantKind, code)
			}
		})
	}
}

func TestVideosCreateWaitReturnsDoneOperation(t *testing.T) {
	app := newTestApp(&fakeVideoClient{
		generate: func(context.Context, videogen.GenerationRequest, videogen.PollingPolicy) (*videogen.Operation, error) {
			return &videogen.Operation{
				ID:     "op-1",
				State:  videogen.StateDone,
				Result: "https://cdn.example.com/videos/op-1.mp4",
			}, nil
		},
	})
	cache := &fakeCache{}
	app.SetCache(cache)

	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(`{"prompt":"x","wait":true}`))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["state"] != "DONE" {
		t.Fatalf("expected DONE, got %#v", payload["state"])
	}
	if payload["result_uri"] != "https://cdn.example.com/videos/op-1.mp4" {
		t.Fatalf("missing result uri: %#v", payload["result_uri"])
	}
	if _, ok := cache.store["op-1"]; !ok {
		t.Fatal("finished operation was not cached")
	}
}

func TestVideosCreateWaitReportsFailureInPayload(t *testing.T) {
	remoteErr := &videogen.RemoteError{Code: "FAILED_PRECONDITION", Message: "content policy violation"}
	app := newTestApp(&fakeVideoClient{
		generate: func(context.Context, videogen.GenerationRequest, videogen.PollingPolicy) (*videogen.Operation, error) {
			return &videogen.Operation{ID: "op-1", State: videogen.StateFailed, Err: remoteErr}, remoteErr
		},
	})

	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(`{"prompt":"x","wait":true}`))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	// The wait completed: the outcome travels in the payload, not the status.
	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["state"] != "FAILED" {
		t.Fatalf("expected FAILED, got %#v", payload["state"])
	}
	fault, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error detail, got %#v", payload["error"])
	}
	if fault["kind"] != "remote" {
		t.Fatalf("expected kind remote, got %#v", fault["kind"])
	}
	if !strings.Contains(fault["message"].(string), "content policy violation") {
		t.Fatalf("expected upstream message, got %#v", fault["message"])
	}
}

func TestVideosCreateWaitReportsTimeoutInPayload(t *testing.T) {
	timeoutErr := &videogen.TimeoutError{OperationID: "op-1", Budget: videogen.DefaultMaxWait}
	app := newTestApp(&fakeVideoClient{
		generate: func(context.Context, videogen.GenerationRequest, videogen.PollingPolicy) (*videogen.Operation, error) {
			return &videogen.Operation{ID: "op-1", State: videogen.StateFailed, Err: timeoutErr}, timeoutErr
		},
	})

	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(`{"prompt":"x","wait":true}`))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	payload := decodePayload(t, rr)
	fault, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error detail, got %#v", payload["error"])
	}
	if fault["kind"] != "timeout" {
		t.Fatalf("expected kind timeout, got %#v", fault["kind"])
	}
}

func TestVideosCreateEnhanceRewritesPrompt(t *testing.T) {
	var got videogen.GenerationRequest
	videos := &fakeVideoClient{
		submit: func(_ context.Context, req videogen.GenerationRequest) (*videogen.Operation, error) {
			got = req
			return &videogen.Operation{ID: "op-1", State: videogen.StatePending}, nil
		},
	}
	enhancer := &fakeEnhancer{
		res: &enhance.EnhanceResponse{Prompt: "Cinematic shot of a red fox in snow.", Provider: "static"},
	}
	app := NewApp(videos, enhancer, zerolog.Nop())

	body := `{"prompt":"a red fox in snow","style":"cinematic","enhance":true}`
	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.LocaleKey, "fr")
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req.WithContext(ctx))

	if rr.Code != 202 {
		t.Fatalf("unexpected status code: got %d, want 202", rr.Code)
	}
	if got.Prompt != "Cinematic shot of a red fox in snow." {
		t.Fatalf("prompt was not enhanced: %q", got.Prompt)
	}
	if enhancer.last.Locale != "fr" {
		t.Fatalf("expected locale fr from context, got %q", enhancer.last.Locale)
	}
	if enhancer.last.Style != "cinematic" {
		t.Fatalf("expected style cinematic, got %q", enhancer.last.Style)
	}
	payload := decodePayload(t, rr)
	if payload["enhanced_prompt"] != "Cinematic shot of a red fox in snow." {
		t.Fatalf("enhanced prompt missing from payload: %#v", payload["enhanced_prompt"])
	}
}

func TestVideosCreateEnhanceFailureUsesRawPrompt(t *testing.T) {
	var got videogen.GenerationRequest
	videos := &fakeVideoClient{
		submit: func(_ context.Context, req videogen.GenerationRequest) (*videogen.Operation, error) {
			got = req
			return &videogen.Operation{ID: "op-1", State: videogen.StatePending}, nil
		},
	}
	app := NewApp(videos, &fakeEnhancer{err: errors.New("provider down")}, zerolog.Nop())

	body := `{"prompt":"a red fox in snow","enhance":true}`
	req := httptest.NewRequest("POST", "/v1/videos", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.VideosCreate(rr, req)

	if rr.Code != 202 {
		t.Fatalf("unexpected status code: got %d, want 202", rr.Code)
	}
	if got.Prompt != "a red fox in snow" {
		t.Fatalf("expected raw prompt after enhancement failure, got %q", got.Prompt)
	}
	payload := decodePayload(t, rr)
	if _, ok := payload["enhanced_prompt"]; ok {
		t.Fatalf("enhanced_prompt should be omitted, got %#v", payload["enhanced_prompt"])
	}
}

func newOperationRouter(app *App) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/v1/operations/*", app.OperationStatus)
	return r
}

func TestOperationStatusForwardsSlashedID(t *testing.T) {
	var gotID string
	videos := &fakeVideoClient{
		check: func(_ context.Context, id string) (*videogen.Operation, error) {
			gotID = id
			return &videogen.Operation{ID: id, State: videogen.StatePending}, nil
		},
	}
	router := newOperationRouter(newTestApp(videos))

	req := httptest.NewRequest("GET", "/v1/operations/models/veo-2.0-generate-001/operations/op-1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	if gotID != "models/veo-2.0-generate-001/operations/op-1" {
		t.Fatalf("operation id mangled by routing: %q", gotID)
	}
	payload := decodePayload(t, rr)
	if payload["state"] != "PENDING" {
		t.Fatalf("expected PENDING, got %#v", payload["state"])
	}
}

func TestOperationStatusRequiresID(t *testing.T) {
	app := newTestApp(&fakeVideoClient{})

	req := httptest.NewRequest("GET", "/v1/operations/", nil)
	rr := httptest.NewRecorder()

	app.OperationStatus(rr, req)

	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
}

func TestOperationStatusCachesDoneOperation(t *testing.T) {
	videos := &fakeVideoClient{
		check: func(_ context.Context, id string) (*videogen.Operation, error) {
			return &videogen.Operation{ID: id, State: videogen.StateDone, Result: "uri://video/op-1"}, nil
		},
	}
	app := newTestApp(videos)
	cache := &fakeCache{}
	app.SetCache(cache)
	router := newOperationRouter(app)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/v1/operations/op-1", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("request %d: unexpected status code %d", i, rr.Code)
		}
		payload := decodePayload(t, rr)
		if payload["result_uri"] != "uri://video/op-1" {
			t.Fatalf("request %d: missing result uri: %#v", i, payload["result_uri"])
		}
	}

	// Second round trip must come from the cache.
	if videos.checks != 1 {
		t.Fatalf("expected a single upstream check, got %d", videos.checks)
	}
}

func TestOperationStatusCacheFailureFallsThrough(t *testing.T) {
	videos := &fakeVideoClient{
		check: func(_ context.Context, id string) (*videogen.Operation, error) {
			return &videogen.Operation{ID: id, State: videogen.StatePending}, nil
		},
	}
	app := newTestApp(videos)
	app.SetCache(&fakeCache{getErr: errors.New("redis down")})
	router := newOperationRouter(app)

	req := httptest.NewRequest("GET", "/v1/operations/op-1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	if videos.checks != 1 {
		t.Fatalf("expected upstream check despite cache failure, got %d", videos.checks)
	}
}

func TestOperationStatusVanishedOperation(t *testing.T) {
	videos := &fakeVideoClient{
		check: func(context.Context, string) (*videogen.Operation, error) {
			return nil, &videogen.RemoteError{StatusCode: 404, Code: "NOT_FOUND", Message: "operation expired"}
		},
	}
	router := newOperationRouter(newTestApp(videos))

	req := httptest.NewRequest("GET", "/v1/operations/op-gone", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != 404 {
		t.Fatalf("unexpected status code: got %d, want 404", rr.Code)
	}
	if code := errorCode(t, rr); code != "not_found" {
		t.Fatalf("expected not_found, got %q", code)
	}
}
