package pipeline

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// TestStatsTTYHUDRendersFields is an end-to-end scenario: it builds the
// cmd/goesrecv binary, runs it under a real pseudo-terminal via
// github.com/creack/pty so the CLI has a controlling terminal for its
// --stats-tty HUD to open as "/dev/tty", and asserts the rendered frame
// contains the expected gain/frequency/omega fields.
func TestStatsTTYHUDRendersFields(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end binary build skipped in -short mode")
	}
	if runtime.GOOS != "linux" {
		t.Skip("pty-backed HUD test is Linux-only")
	}

	repoRoot := findRepoRoot(t)
	binPath := filepath.Join(t.TempDir(), "goesrecv")

	build := exec.Command("go", "build", "-o", binPath, "./cmd/goesrecv")
	build.Dir = repoRoot
	out, err := build.CombinedOutput()
	require.NoError(t, err, "build output:\n%s", out)

	capture := filepath.Join(t.TempDir(), "capture.iq")
	writeSilentCapture(t, capture, 1<<20)

	cmd := exec.Command(binPath,
		"--capture-file", capture,
		"--stats-tty",
	)

	ptmx, err := pty.Start(cmd)
	require.NoError(t, err)
	defer ptmx.Close()
	defer cmd.Process.Kill()

	fieldPattern := regexp.MustCompile(`gain=-?\d+\.\d+ freq=-?\d+\.\d+Hz omega=-?\d+\.\d+`)

	deadline := time.Now().Add(10 * time.Second)
	scanner := bufio.NewScanner(ptmx)
	scanner.Split(bufio.ScanLines)

	found := false
	for !found && time.Now().Before(deadline) {
		if !scanner.Scan() {
			break
		}
		if fieldPattern.MatchString(scanner.Text()) {
			found = true
		}
	}

	require.True(t, found, "expected a rendered HUD frame with gain/freq/omega fields")
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "go.mod not found above %s", dir)
		dir = parent
	}
}

func writeSilentCapture(t *testing.T, path string, nsamples int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, nsamples*8)
	_, err = f.Write(buf)
	require.NoError(t, err)
}
