package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/reelay-dev/reelay/internal/enhance"
	"github.com/reelay-dev/reelay/internal/metrics"
	"github.com/reelay-dev/reelay/internal/middleware"
	"github.com/reelay-dev/reelay/internal/videogen"
)

type videoCreateRequest struct {
	Prompt            string         `json:"prompt"`
	Parameters        map[string]any `json:"parameters,omitempty"`
	SourceImageBase64 string         `json:"source_image_base64,omitempty"`
	SourceImageMime   string         `json:"source_image_mime,omitempty"`
	Style             string         `json:"style,omitempty"`
	Enhance           bool           `json:"enhance,omitempty"`
	Wait              bool           `json:"wait,omitempty"`
}

type operationPayload struct {
	OperationID    string          `json:"operation_id"`
	State          string          `json:"state"`
	ResultURI      string          `json:"result_uri,omitempty"`
	EnhancedPrompt string          `json:"enhanced_prompt,omitempty"`
	Error          *operationFault `json:"error,omitempty"`
}

type operationFault struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// VideosCreate godoc
// @Summary Start a video generation
// @Description Submits a prompt to the generation backend. With wait=true the call blocks until the operation reaches a terminal state and returns it; otherwise the operation id is returned immediately.
// @Tags videos
// @Accept json
// @Produce json
// @Param request body videoCreateRequest true "Generation request"
// @Success 200 {object} operationPayload "Terminal operation (wait=true)"
// @Success 202 {object} operationPayload "Accepted operation (wait=false)"
// @Failure 400 {object} map[string]errorDetail
// @Failure 502 {object} map[string]errorDetail
// @Failure 503 {object} map[string]errorDetail
// @Router /v1/videos [post]
func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req videoCreateRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	genReq := videogen.GenerationRequest{Prompt: req.Prompt, Parameters: req.Parameters}
	if req.SourceImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.SourceImageBase64)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "source_image_base64 is not valid base64")
			return
		}
		genReq.SourceMedia = &videogen.SourceMedia{Data: data, MIMEType: req.SourceImageMime}
	}

	enhancedPrompt := ""
	if req.Enhance && a.Enhancer != nil && strings.TrimSpace(req.Prompt) != "" {
		res, err := a.Enhancer.Enhance(r.Context(), enhance.EnhanceRequest{
			Prompt: req.Prompt,
			Locale: middleware.LocaleFromContext(r.Context()),
			Style:  req.Style,
		})
		if err != nil {
			a.Logger.Warn().Err(err).Msg("prompt enhancement failed, using raw prompt")
		} else if res != nil && res.Prompt != "" {
			genReq.Prompt = res.Prompt
			enhancedPrompt = res.Prompt
			a.Logger.Debug().Str("provider", res.Provider).Msg("prompt enhanced")
		}
	}

	if !req.Wait {
		op, err := a.Videos.Submit(r.Context(), genReq)
		if err != nil {
			metrics.GenerationResult(errorKind(err), time.Since(start))
			a.generationError(w, err)
			return
		}
		metrics.GenerationResult("accepted", time.Since(start))
		a.json(w, http.StatusAccepted, operationPayload{
			OperationID:    op.ID,
			State:          string(op.State),
			EnhancedPrompt: enhancedPrompt,
		})
		return
	}

	op, err := a.Videos.GenerateAndWait(r.Context(), genReq, videogen.PollingPolicy{})
	if op == nil {
		metrics.GenerationResult(errorKind(err), time.Since(start))
		a.generationError(w, err)
		return
	}
	payload := payloadFromOperation(op)
	payload.EnhancedPrompt = enhancedPrompt
	if op.State == videogen.StateDone {
		metrics.GenerationResult("done", time.Since(start))
		a.storeOperation(r, payload)
	} else {
		metrics.GenerationResult(errorKind(op.Err), time.Since(start))
	}
	a.json(w, http.StatusOK, payload)
}

// OperationStatus godoc
// @Summary Check a generation operation
// @Description Relays the remote state of an operation. Finished operations may be served from the result cache.
// @Tags videos
// @Produce json
// @Param id path string true "Operation id (may contain slashes)"
// @Success 200 {object} operationPayload
// @Failure 400 {object} map[string]errorDetail
// @Failure 404 {object} map[string]errorDetail
// @Failure 502 {object} map[string]errorDetail
// @Router /v1/operations/{id} [get]
func (a *App) OperationStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(chi.URLParam(r, "*"), "/")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "operation id required")
		return
	}
	if a.cache != nil {
		cached, found, err := a.cache.Get(r.Context(), id)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("cache get failed")
		} else if found {
			a.Logger.Debug().Str("operation_id", id).Msg("operation served from cache")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		}
	}
	op, err := a.Videos.Check(r.Context(), id)
	if err != nil {
		a.generationError(w, err)
		return
	}
	payload := payloadFromOperation(op)
	if op.State == videogen.StateDone {
		a.storeOperation(r, payload)
	}
	a.json(w, http.StatusOK, payload)
}

func payloadFromOperation(op *videogen.Operation) operationPayload {
	payload := operationPayload{OperationID: op.ID, State: string(op.State), ResultURI: op.Result}
	if op.Err != nil {
		payload.Error = &operationFault{Kind: errorKind(op.Err), Message: op.Err.Error()}
	}
	return payload
}

func (a *App) storeOperation(r *http.Request, payload operationPayload) {
	if a.cache == nil {
		return
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return
	}
	if err := a.cache.Set(r.Context(), payload.OperationID, string(body)); err != nil {
		a.Logger.Warn().Err(err).Msg("cache set failed")
	}
}

// errorKind collapses the client error taxonomy into stable API labels.
func errorKind(err error) string {
	if err == nil {
		return "failed"
	}
	if errors.Is(err, videogen.ErrMissingAPIKey) {
		return "credentials"
	}
	var ve *videogen.ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	var te *videogen.TransportError
	if errors.As(err, &te) {
		return "transport"
	}
	var re *videogen.RemoteError
	if errors.As(err, &re) {
		return "remote"
	}
	var toe *videogen.TimeoutError
	if errors.As(err, &toe) {
		return "timeout"
	}
	var ce *videogen.CancelledError
	if errors.As(err, &ce) {
		return "cancelled"
	}
	return "internal"
}

func (a *App) generationError(w http.ResponseWriter, err error) {
	switch errorKind(err) {
	case "credentials":
		a.error(w, http.StatusServiceUnavailable, "credentials_missing", "video backend credentials are not configured")
	case "validation":
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case "transport":
		a.error(w, http.StatusBadGateway, "upstream_unreachable", err.Error())
	case "remote":
		var re *videogen.RemoteError
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			a.error(w, http.StatusNotFound, "not_found", "operation not found")
			return
		}
		a.error(w, http.StatusBadGateway, "upstream_error", err.Error())
	case "timeout":
		a.error(w, http.StatusGatewayTimeout, "wait_timeout", err.Error())
	case "cancelled":
		a.error(w, http.StatusServiceUnavailable, "cancelled", "request cancelled before completion")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "unexpected failure")
	}
}
