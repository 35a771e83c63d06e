package playback

import (
	"fmt"
	"log/slog"
)

// releaseStep is one independently guarded part of a teardown
type releaseStep struct {
	name string
	fn   func() error
}

// releaseAll runs every step even if earlier ones fail or panic.
// Failures are logged and never propagated.
func releaseAll(logger *slog.Logger, steps ...releaseStep) {
	for _, step := range steps {
		if err := guard(step.fn); err != nil {
			logger.Debug("teardown step failed", "step", step.name, "error", err)
		}
	}
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
