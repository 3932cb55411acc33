package modelsvc

import "os"

// Device identifies where inference runs.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// DetectDevice resolves a device preference. "auto" (or empty) probes
// for an NVIDIA device node and falls back to CPU.
func DetectDevice(pref string) Device {
	switch pref {
	case "cuda":
		return DeviceCUDA
	case "cpu":
		return DeviceCPU
	default:
		if _, err := os.Stat("/dev/nvidia0"); err == nil {
			return DeviceCUDA
		}
		return DeviceCPU
	}
}

// defaultMaxInputTokens is the token budget applied to input text
// before generation. Longer inputs are truncated, not rejected.
const defaultMaxInputTokens = 512

// Config carries construction parameters for the Service.
// Zero values fall back to package defaults.
type Config struct {
	// ModelName is the registry name of the model to serve.
	ModelName string
	// ModelPath is the resolved on-disk path handed to the backend.
	ModelPath string
	// Device selects the inference device.
	Device Device
	// MaxInputTokens bounds the encoded input length.
	MaxInputTokens int
}
