//go:build !linux && !windows && !darwin

package glwindow

import (
	"fmt"
	"log/slog"
	"runtime"
)

func openNativeBackend(*slog.Logger) (backend, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotSupported, runtime.GOOS)
}
