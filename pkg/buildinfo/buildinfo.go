package buildinfo

import (
	"os"
	"path/filepath"
)

// Multiarch is filled in by the Debian build system.
// It's the directory you see in /usr/lib/XXX, such as /usr/lib/x86_64-linux-gnu, or /usr/lib/aarch64-linux-gnu.
// If the value of Multiarch is "unknown", then we ignore this path.
var Multiarch = "unknown"

// ONNXRuntimeLibraryName is the shared library that onnxruntime_go loads
const ONNXRuntimeLibraryName = "libonnxruntime.so"

// ONNXRuntimeLibrary returns the first of the usual install locations of the ONNX Runtime
// shared library that exists, or an empty string.
func ONNXRuntimeLibrary() string {
	for _, p := range ONNXRuntimeSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ONNXRuntimeSearchPaths lists the places where we look for the ONNX Runtime shared library
func ONNXRuntimeSearchPaths() []string {
	paths := []string{}
	if Multiarch != "unknown" {
		paths = append(paths, filepath.Join("/usr/lib", Multiarch, ONNXRuntimeLibraryName))
	}
	paths = append(paths,
		filepath.Join("/usr/local/lib", ONNXRuntimeLibraryName),
		filepath.Join("/usr/lib", ONNXRuntimeLibraryName),
	)
	return paths
}
