package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gend/internal/modelsvc"
	"gend/pkg/types"
)

// Server metadata returned by GET /.
const (
	ServerName        = "gend"
	ServerVersion     = "1.0.0"
	ServerDescription = "HTTP server for text generation using a pretrained language model"
)

// endpoints lists the mounted paths, in mount order, for GET /.
var endpoints = []string{
	"/",
	"/health",
	"/health/ready",
	"/health/live",
	"/model/status",
	"/generate",
	"/metrics",
}

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Ready() bool
	Info() types.ModelInfo
	Generate(ctx context.Context, text string, params types.GenerateParams) (string, time.Duration, error)
}

// NewMux builds the router with all endpoints and middleware mounted.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoverJSON)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Get("/health/ready", handleReady(svc))
	r.Get("/health/live", handleLive)
	r.Get("/model/status", handleModelStatus(svc))
	r.Post("/generate", handleGenerate(svc))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleRoot godoc
// @Summary server metadata
// @Produce json
// @Success 200 {object} types.ServerInfo
// @Router / [get]
func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ServerInfo{
		Name:        ServerName,
		Version:     ServerVersion,
		Description: ServerDescription,
		Endpoints:   append([]string(nil), endpoints...),
	})
}

// handleHealth godoc
// @Summary unconditional liveness of the HTTP surface
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Router /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:    "healthy",
		Timestamp: nowStamp(),
		Message:   "Server is running and accepting requests",
	})
}

// handleReady godoc
// @Summary readiness, tied to model state
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Failure 503 {object} types.DetailResponse
// @Router /health/ready [get]
func handleReady(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !svc.Ready() {
			writeDetail(w, http.StatusServiceUnavailable, "Server is not ready to accept requests")
			return
		}
		writeJSON(w, http.StatusOK, types.HealthResponse{
			Status:    "ready",
			Timestamp: nowStamp(),
			Message:   "Server is ready to accept requests",
		})
	}
}

// handleLive godoc
// @Summary liveness, proves the scheduler still completes trivial work
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Failure 500 {object} types.DetailResponse
// @Router /health/live [get]
func handleLive(w http.ResponseWriter, r *http.Request) {
	if err := livenessProbe(r.Context()); err != nil {
		if zlog != nil {
			zlog.Error().Err(err).Msg("liveness check failed")
		} else {
			log.Printf("liveness check failed: %v", err)
		}
		writeDetail(w, http.StatusInternalServerError, "Server liveness check failed")
		return
	}
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:    "alive",
		Timestamp: nowStamp(),
		Message:   "Server process is alive and functioning",
	})
}

// handleModelStatus godoc
// @Summary model lifecycle status
// @Produce json
// @Success 200 {object} types.ModelStatusResponse
// @Router /model/status [get]
func handleModelStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := svc.Info()
		// A failed load also reports "loading": is_loaded is false in
		// both cases and this derivation cannot tell them apart.
		status := "error"
		if info.Ready {
			status = "ready"
		} else if !info.IsLoaded {
			status = "loading"
		}
		writeJSON(w, http.StatusOK, types.ModelStatusResponse{
			ModelName: info.ModelName,
			IsLoaded:  info.IsLoaded,
			Status:    status,
			Timestamp: nowStamp(),
		})
	}
}

// handleGenerate godoc
// @Summary generate text from input text
// @Accept json
// @Produce json
// @Param request body types.GenerateRequest true "generation request"
// @Success 200 {object} types.GenerateResponse
// @Failure 422 {object} types.ValidationErrorResponse
// @Failure 503 {object} types.DetailResponse
// @Failure 500 {object} types.DetailResponse
// @Router /generate [post]
func handleGenerate(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeDetail(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, []types.FieldError{{Field: "body", Message: "invalid JSON body"}})
			return
		}
		if errs := req.Validate(); errs != nil {
			writeValidationError(w, errs)
			return
		}

		lvl := requestLogLevel(r)
		if lvl >= LevelInfo {
			if zlog != nil {
				z := zlog.Info().Str("path", r.URL.Path).Int("text_len", len(req.Text))
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Msg("generate start")
			} else {
				log.Printf("generate start path=%s text_len=%d", r.URL.Path, len(req.Text))
			}
		}

		// Join server base context with request context so shutdown
		// cancels in-flight work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		out, elapsed, err := svc.Generate(ctx, req.Text, req.Params())
		if err != nil {
			// Client disconnect or shutdown: nothing useful to write.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := generateErrorStatus(err)
			ObserveGeneration(elapsed, outcomeLabel(err))
			if status == http.StatusInternalServerError && !modelsvc.IsGenerationFailed(err) {
				// Unexpected failure: generic body, full detail server-side.
				if zlog != nil {
					zlog.Error().Err(err).Msg("unhandled generate error")
				} else {
					log.Printf("unhandled generate error: %v", err)
				}
				writeServerError(w)
			} else {
				writeDetail(w, status, err.Error())
			}
			logGenerateEnd(r, lvl, status, elapsed, err)
			return
		}
		ObserveGeneration(elapsed, "ok")
		writeJSON(w, http.StatusOK, types.GenerateResponse{
			GeneratedText:         out,
			InputText:             req.Text,
			ModelName:             svc.Info().ModelName,
			GenerationTimeSeconds: elapsed.Seconds(),
			Timestamp:             nowStamp(),
		})
		logGenerateEnd(r, lvl, http.StatusOK, elapsed, nil)
	}
}

// generateErrorStatus maps model service errors to HTTP status codes.
func generateErrorStatus(err error) int {
	if modelsvc.IsNotLoaded(err) {
		return http.StatusServiceUnavailable
	}
	if modelsvc.IsGenerationFailed(err) {
		return http.StatusInternalServerError
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func outcomeLabel(err error) string {
	switch {
	case modelsvc.IsNotLoaded(err):
		return "not_loaded"
	case modelsvc.IsGenerationFailed(err):
		return "failed"
	default:
		return "error"
	}
}

func logGenerateEnd(r *http.Request, lvl LogLevel, status int, elapsed time.Duration, err error) {
	if lvl < LevelInfo {
		return
	}
	if zlog != nil {
		z := zlog.Info().Int("status", status).Dur("dur", elapsed)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		if err != nil {
			z = z.Err(err)
		}
		z.Msg("generate end")
		return
	}
	if err != nil {
		log.Printf("generate end status=%d dur=%s err=%v", status, elapsed, err)
	} else {
		log.Printf("generate end status=%d dur=%s", status, elapsed)
	}
}
