// internal/job/helpers_test.go
package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPage is a testify mock of the page capability used by the submitter and poller.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Click(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *MockPage) UploadFile(ctx context.Context, selector, path string) error {
	args := m.Called(ctx, selector, path)
	return args.Error(0)
}

func (m *MockPage) TextContent(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}

// writeInputs creates the three input files in a temp dir.
func writeInputs(t *testing.T) Inputs {
	t.Helper()
	dir := t.TempDir()
	in := Inputs{
		Source: filepath.Join(dir, "source.mdl"),
		Target: filepath.Join(dir, "target.mdl"),
		Trace:  filepath.Join(dir, "trace.nbt"),
	}
	for _, p := range []string{in.Source, in.Target, in.Trace} {
		require.NoError(t, os.WriteFile(p, []byte{0x01}, 0o644))
	}
	return in
}

// recordingSleep records requested waits without actually sleeping.
type recordingSleep struct {
	calls []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return ctx.Err()
}
