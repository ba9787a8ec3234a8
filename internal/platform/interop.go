package platform

import "fmt"

// WithInterop runs fn with the shell's interop context suspended. The context
// is resumed on every exit path, including a panic inside fn.
func WithInterop(s Shell, fn func() error) (err error) {
	if err := s.SuspendInterop(); err != nil {
		return fmt.Errorf("suspend interop: %w", err)
	}
	defer func() {
		if rerr := s.ResumeInterop(); rerr != nil && err == nil {
			err = fmt.Errorf("resume interop: %w", rerr)
		}
	}()
	return fn()
}
