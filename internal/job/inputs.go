// internal/job/inputs.go
package job

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
)

// Inputs holds the three local files a job can attach. Paths are read-only references;
// only the subset implied by the Mode has to exist.
type Inputs struct {
	Source string
	Target string
	Trace  string
}

// Resolve expands a leading "~" in every non-empty path.
func (in Inputs) Resolve() (Inputs, error) {
	var err error
	out := in
	for _, p := range []*string{&out.Source, &out.Target, &out.Trace} {
		if *p == "" {
			continue
		}
		if *p, err = homedir.Expand(*p); err != nil {
			return in, fmt.Errorf("failed to expand input path: %w", err)
		}
	}
	return out, nil
}

// Verify checks that every file required by mode resolves to a readable regular file.
func (in Inputs) Verify(mode Mode) error {
	if mode.NeedsSource() {
		if err := checkReadable("source", in.Source); err != nil {
			return err
		}
	}
	if mode.NeedsTarget() {
		if err := checkReadable("target", in.Target); err != nil {
			return err
		}
	}
	return checkReadable("trace", in.Trace)
}

func checkReadable(slot, path string) error {
	if path == "" {
		return &Error{Code: ErrCodeInputNotFound, Op: slot, Err: fmt.Errorf("no path configured")}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &Error{Code: ErrCodeInputNotFound, Op: slot, Err: err}
	}
	if info.IsDir() {
		return &Error{Code: ErrCodeInputNotFound, Op: slot, Err: fmt.Errorf("%s is a directory", path)}
	}
	f, err := os.Open(path)
	if err != nil {
		return &Error{Code: ErrCodeInputNotFound, Op: slot, Err: err}
	}
	return f.Close()
}
