package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchPaths(t *testing.T) {
	orig := Multiarch
	defer func() { Multiarch = orig }()

	Multiarch = "unknown"
	require.Equal(t, []string{"/usr/local/lib/libonnxruntime.so", "/usr/lib/libonnxruntime.so"}, ONNXRuntimeSearchPaths())

	Multiarch = "aarch64-linux-gnu"
	require.Equal(t, "/usr/lib/aarch64-linux-gnu/libonnxruntime.so", ONNXRuntimeSearchPaths()[0])
}
