package machine_test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/lang/machine"
)

// captureStderr redirects os.Stderr for the duration of fn and returns
// whatever was written to it.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	saved := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = saved }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestCollectLogsWhenLogGCIsSet(t *testing.T) {
	h := machine.NewHeap()
	h.LogGC = true

	out := captureStderr(t, h.Collect)
	require.Contains(t, out, "-- gc begin")
	require.Contains(t, out, "-- gc end")
}

func TestCollectIsSilentByDefault(t *testing.T) {
	h := machine.NewHeap()

	out := captureStderr(t, h.Collect)
	require.Empty(t, out)
}
