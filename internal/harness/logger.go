package harness

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const timestampFormat = "15:04:05.000"

// Logger is the logging surface shared by the runner, session cache and
// scenarios.
type Logger interface {
	Printf(format string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Printf(string, ...interface{}) {}

// NullLogger discards everything.
func NullLogger() Logger { return nullLogger{} }

// CapturedMessage is one line held by a CapturingLogger.
type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturedOutput is what a scenario logged, oldest first.
type CapturedOutput []CapturedMessage

// Dump writes every message to dest with prefix.
func (out CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range out {
		fmt.Fprintf(dest, "%s[%s] %s\n", prefix, m.Time.Format(timestampFormat), m.Message)
	}
}

// CapturingLogger keeps messages in memory until a reporter decides whether
// to show them.
type CapturingLogger struct {
	mu     sync.Mutex
	output CapturedOutput
}

func (l *CapturingLogger) Printf(format string, args ...interface{}) {
	msg := CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(format, args...)}
	l.mu.Lock()
	l.output = append(l.output, msg)
	l.mu.Unlock()
}

// Output returns a copy of what was captured.
func (l *CapturingLogger) Output() CapturedOutput {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append(CapturedOutput(nil), l.output...)
}

// TestLogger receives scenario lifecycle events. Scenarios run in parallel,
// so implementations must be safe for concurrent use.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, f Failure)
	TestFinished(id TestID, result TestResult, debugOutput CapturedOutput)
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (nullTestLogger) TestStarted(TestID)                              {}
func (nullTestLogger) TestError(TestID, Failure)                       {}
func (nullTestLogger) TestFinished(TestID, TestResult, CapturedOutput) {}
func (nullTestLogger) TestSkipped(TestID, string)                      {}
