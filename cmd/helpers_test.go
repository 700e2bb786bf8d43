// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tracescore/internal/config"
	"github.com/xkilldash9x/tracescore/internal/observability"
	"github.com/xkilldash9x/tracescore/internal/orchestrator"
)

// fakeSession is a scripted page: every action succeeds and status reads return the
// configured texts in order, repeating the last one.
type fakeSession struct {
	statuses []string
	reads    int
	actions  []string
	closed   bool
}

func (s *fakeSession) ID() string { return "fake" }

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.actions = append(s.actions, "navigate "+url)
	return nil
}

func (s *fakeSession) Click(_ context.Context, selector string) error {
	s.actions = append(s.actions, "click "+selector)
	return nil
}

func (s *fakeSession) UploadFile(_ context.Context, selector, path string) error {
	s.actions = append(s.actions, "upload "+selector+" "+filepath.Base(path))
	return nil
}

func (s *fakeSession) TextContent(context.Context, string) (string, error) {
	i := s.reads
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	s.reads++
	return s.statuses[i], nil
}

func (s *fakeSession) Close(context.Context) error {
	s.closed = true
	return nil
}

// stubLauncher replaces newLauncher for the duration of the test and counts launches.
func stubLauncher(t *testing.T, session *fakeSession) *int {
	t.Helper()
	launches := 0
	orig := newLauncher
	newLauncher = func(config.BrowserConfig, *zap.Logger) orchestrator.Launcher {
		return orchestrator.LauncherFunc(func(context.Context) (orchestrator.PageSession, error) {
			launches++
			return session, nil
		})
	}
	t.Cleanup(func() { newLauncher = orig })
	return &launches
}

// setupInputs writes the three input files and points the config at them through env.
func setupInputs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	for key, name := range map[string]string{
		"TRACESCORE_INPUTS_SOURCE": "source.mdl",
		"TRACESCORE_INPUTS_TARGET": "target.mdl",
		"TRACESCORE_INPUTS_TRACE":  "trace.nbt",
	} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte{0x01}, 0o644))
		t.Setenv(key, p)
	}
	// Keep the test out of any config.yaml in the package directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// resetLogger gives each test a fresh global logger.
func resetLogger(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	t.Setenv("TRACESCORE_LOGGER_LEVEL", "fatal")
	t.Cleanup(observability.ResetForTest)
}

// executeRoot runs a fresh command tree and returns what it wrote to stdout.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
