package logger

import (
	"fmt"
	"runtime"
	"strings"
)

// CaptureStacktrace captures the current call stack.
// skip: frames to skip; depth: max frames (0 = 32)
func CaptureStacktrace(skip int, depth int) string {
	if depth <= 0 {
		depth = 32
	}

	pcs := make([]uintptr, depth*2)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}

	var frames []string
	callersFrames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		if len(frames) >= depth || !more {
			break
		}
	}

	return strings.Join(frames, "\n")
}
