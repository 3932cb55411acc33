// Package modelsvc owns the lifecycle of the single model instance and
// provides the generation operation. It is structured into small files
// by concern:
//
//   - service.go: the Service type, Load/Ready/Info/Generate.
//   - types.go: Device, Config, and package defaults.
//   - errors.go: error types and helpers (IsNotLoaded, IsGenerationFailed).
//   - backend.go: the narrow Backend/Tokenizer/Model collaborator interfaces.
//
// Build tags and runtimes:
//
//   - In-process llama (standard):
//     Uses the go-llama.cpp binding. Enabled with `-tags=llama`.
//     Files: backend_llama.go, llama_cgo.go (linker rpath hints).
//     A no-CGO stub compiles when the tag is not set: backend_stub.go.
//     Without the tag, Load fails and the daemon serves degraded
//     (health and status endpoints stay up, generation reports 503).
//
// External packages should use public methods only (New, Load, Ready,
// Info, Generate). Internal state is subject to change.
package modelsvc
