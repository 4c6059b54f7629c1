package handlers

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/reelay-dev/reelay/internal/enhance"
	"github.com/reelay-dev/reelay/internal/videogen"
)

// VideoClient is the slice of the generation client the handlers depend on.
type VideoClient interface {
	Submit(ctx context.Context, req videogen.GenerationRequest) (*videogen.Operation, error)
	Check(ctx context.Context, operationID string) (*videogen.Operation, error)
	GenerateAndWait(ctx context.Context, req videogen.GenerationRequest, policy videogen.PollingPolicy) (*videogen.Operation, error)
}

// OperationCache stores rendered payloads of finished operations.
type OperationCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// App bundles the dependencies handler methods need.
type App struct {
	Videos   VideoClient
	Enhancer enhance.Enhancer
	Logger   zerolog.Logger

	cache OperationCache
}

func NewApp(videos VideoClient, enhancer enhance.Enhancer, logger zerolog.Logger) *App {
	return &App{Videos: videos, Enhancer: enhancer, Logger: logger}
}

// SetCache plugs in the optional result cache.
func (a *App) SetCache(cache OperationCache) {
	a.cache = cache
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, map[string]errorDetail{"error": {Code: kind, Message: msg}})
}
