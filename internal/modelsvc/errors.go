package modelsvc

import "net/http"

// notLoadedMessage is the fixed explanation returned while the model
// is not ready. Clients retry later; the server never retries the load.
const notLoadedMessage = "Model is not loaded yet. Please wait for model initialization."

// notLoadedError signals that generation was requested before the
// model became ready, for 503 mapping.
type notLoadedError struct{}

func (notLoadedError) Error() string   { return notLoadedMessage }
func (notLoadedError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrNotLoaded is the error Generate reports before the model is ready.
func ErrNotLoaded() error { return notLoadedError{} }

// IsNotLoaded reports whether err indicates the model is not ready.
func IsNotLoaded(err error) bool {
	_, ok := err.(notLoadedError)
	return ok
}

// generationError wraps any failure inside the tokenize-generate-decode
// pipeline. The boundary is deliberately lossy: callers cannot tell the
// stages apart, only the original error text survives.
type generationError struct{ cause error }

func (e generationError) Error() string   { return "Text generation failed: " + e.cause.Error() }
func (e generationError) StatusCode() int { return http.StatusInternalServerError }
func (e generationError) Unwrap() error   { return e.cause }

// ErrGenerationFailed wraps a pipeline failure with the stable shape
// surfaced to callers.
func ErrGenerationFailed(cause error) error { return generationError{cause: cause} }

// IsGenerationFailed reports whether err came from the generation pipeline.
func IsGenerationFailed(err error) bool {
	_, ok := err.(generationError)
	return ok
}

// dependencyUnavailableError signals a missing runtime dependency
// (e.g., a binary built without llama support).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing or
// failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	_, ok := err.(dependencyUnavailableError)
	return ok
}
