package types

import (
	"fmt"
	"unicode/utf8"
)

// Generation parameter bounds and defaults. The schema enforces the
// bounds; the model service trusts values it receives.
const (
	MinTextLength = 1
	MaxTextLength = 512

	MinMaxLength     = 10
	MaxMaxLength     = 512
	DefaultMaxLength = 150

	MinTemperature     = 0.1
	MaxTemperature     = 2.0
	DefaultTemperature = 1.0

	MinNumBeams     = 1
	MaxNumBeams     = 10
	DefaultNumBeams = 4
)

// GenerateRequest is the payload for POST /generate.
// Optional fields are pointers so that an explicit out-of-range zero is
// rejected instead of silently replaced by a default.
type GenerateRequest struct {
	// Input text for text-to-text generation.
	// example: translate English to German: The house is wonderful.
	Text string `json:"text" example:"translate English to German: The house is wonderful."`
	// Maximum length of generated text. Defaults to 150.
	// example: 150
	MaxLength *int `json:"max_length,omitempty" example:"150"`
	// Sampling temperature (higher = more creative). Defaults to 1.0.
	// example: 1.0
	Temperature *float64 `json:"temperature,omitempty" example:"1.0"`
	// Number of beams for beam search. Defaults to 4.
	// example: 4
	NumBeams *int `json:"num_beams,omitempty" example:"4"`
}

// FieldError describes a single invalid request field.
type FieldError struct {
	// Name of the offending field.
	// example: temperature
	Field string `json:"field" example:"temperature"`
	// Human-readable constraint violation.
	// example: must be between 0.1 and 2.0
	Message string `json:"message" example:"must be between 0.1 and 2.0"`
}

// Validate checks every field against its bounds and returns the full
// list of violations. A nil result means the request is well formed.
func (r *GenerateRequest) Validate() []FieldError {
	var errs []FieldError
	// Bounds are in characters, not bytes.
	if n := utf8.RuneCountInString(r.Text); n < MinTextLength || n > MaxTextLength {
		errs = append(errs, FieldError{
			Field:   "text",
			Message: fmt.Sprintf("length must be between %d and %d characters", MinTextLength, MaxTextLength),
		})
	}
	if r.MaxLength != nil && (*r.MaxLength < MinMaxLength || *r.MaxLength > MaxMaxLength) {
		errs = append(errs, FieldError{
			Field:   "max_length",
			Message: fmt.Sprintf("must be between %d and %d", MinMaxLength, MaxMaxLength),
		})
	}
	if r.Temperature != nil && (*r.Temperature < MinTemperature || *r.Temperature > MaxTemperature) {
		errs = append(errs, FieldError{
			Field:   "temperature",
			Message: fmt.Sprintf("must be between %g and %g", MinTemperature, MaxTemperature),
		})
	}
	if r.NumBeams != nil && (*r.NumBeams < MinNumBeams || *r.NumBeams > MaxNumBeams) {
		errs = append(errs, FieldError{
			Field:   "num_beams",
			Message: fmt.Sprintf("must be between %d and %d", MinNumBeams, MaxNumBeams),
		})
	}
	return errs
}

// GenerateParams are the decoding parameters handed to the model
// service, with defaults already applied.
type GenerateParams struct {
	MaxLength   int
	Temperature float64
	NumBeams    int
}

// Params returns the request's decoding parameters with defaults
// filled in for omitted fields. Callers must Validate first.
func (r *GenerateRequest) Params() GenerateParams {
	p := GenerateParams{
		MaxLength:   DefaultMaxLength,
		Temperature: DefaultTemperature,
		NumBeams:    DefaultNumBeams,
	}
	if r.MaxLength != nil {
		p.MaxLength = *r.MaxLength
	}
	if r.Temperature != nil {
		p.Temperature = *r.Temperature
	}
	if r.NumBeams != nil {
		p.NumBeams = *r.NumBeams
	}
	return p
}

// GenerateResponse is returned by POST /generate on success.
type GenerateResponse struct {
	// Text produced by the model.
	// example: Das Haus ist wunderbar.
	GeneratedText string `json:"generated_text" example:"Das Haus ist wunderbar."`
	// Echo of the submitted input text.
	// example: translate English to German: The house is wonderful.
	InputText string `json:"input_text" example:"translate English to German: The house is wonderful."`
	// Name of the model that served the request.
	// example: t5-small
	ModelName string `json:"model_name" example:"t5-small"`
	// Wall-clock duration of the tokenize-generate-decode pipeline.
	// example: 0.412
	GenerationTimeSeconds float64 `json:"generation_time_seconds" example:"0.412"`
	// Response creation instant, RFC 3339 UTC.
	// example: 2024-01-15T10:30:00Z
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// HealthResponse is the body of the health check endpoints.
type HealthResponse struct {
	// One of healthy, ready, alive.
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Check instant, RFC 3339 UTC.
	// example: 2024-01-15T10:30:00Z
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	// Human-readable explanation.
	// example: Server is running and accepting requests
	Message string `json:"message" example:"Server is running and accepting requests"`
}

// ServerInfo is returned by GET /.
type ServerInfo struct {
	// Server name.
	// example: gend
	Name string `json:"name" example:"gend"`
	// Server version.
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	// Short description of the service.
	Description string `json:"description"`
	// Mounted endpoint paths, in mount order.
	Endpoints []string `json:"endpoints"`
}

// ModelStatusResponse is returned by GET /model/status.
type ModelStatusResponse struct {
	// Configured model name.
	// example: t5-small
	ModelName string `json:"model_name" example:"t5-small"`
	// Whether the load operation has completed successfully.
	// example: true
	IsLoaded bool `json:"is_loaded" example:"true"`
	// One of ready, loading, error.
	// example: ready
	Status string `json:"status" example:"ready"`
	// Snapshot instant, RFC 3339 UTC.
	// example: 2024-01-15T10:30:00Z
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// ModelInfo is a read-only projection of the model service state,
// recomputed per call.
type ModelInfo struct {
	ModelName string `json:"model_name"`
	IsLoaded  bool   `json:"is_loaded"`
	Device    string `json:"device"`
	Ready     bool   `json:"ready"`
	LastError string `json:"last_error,omitempty"`
}

// DetailResponse carries a single failure explanation, used by the
// health and generation endpoints.
type DetailResponse struct {
	// Failure explanation.
	// example: Model is not loaded yet. Please wait for model initialization.
	Detail string `json:"detail" example:"Model is not loaded yet. Please wait for model initialization."`
}

// ValidationErrorResponse is the 422 body for malformed or
// out-of-range requests.
type ValidationErrorResponse struct {
	// One entry per invalid field.
	Detail []FieldError `json:"detail"`
}

// ServerErrorResponse is produced by the process-wide fallback for
// unhandled failures. It never carries internal error detail.
type ServerErrorResponse struct {
	// Stable error label.
	// example: Internal server error
	Error string `json:"error" example:"Internal server error"`
	// Generic message safe to expose.
	// example: An unexpected error occurred
	Message string `json:"message" example:"An unexpected error occurred"`
	// Failure instant, RFC 3339 UTC.
	// example: 2024-01-15T10:30:00Z
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}
