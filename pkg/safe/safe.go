package safe

import (
	"log/slog"
	"runtime/debug"
	"strings"
)

const maxStackLines = 20

// Run calls fn and logs a recovered panic instead of crashing the process.
func Run(fn func()) {
	RunWithLog(fn, "safe.Run")
}

// RunWithLog is Run with the component name attached to the panic log.
func RunWithLog(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", stackTrace(maxStackLines)),
			)
		}
	}()

	fn()
}

// stackTrace returns at most limit non-empty lines of the current goroutine's stack.
func stackTrace(limit int) string {
	lines := strings.Split(string(debug.Stack()), "\n")

	formatted := []string{"Stack trace:"}
	for _, line := range lines {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if len(formatted) > limit {
			formatted = append(formatted, "... (truncated)")
			break
		}
		formatted = append(formatted, "  "+line)
	}
	return strings.Join(formatted, "\n")
}
