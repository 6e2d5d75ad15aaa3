package testutil

import (
	"bytes"
	"strings"
	"sync"
)

// LogSink is an in-memory write syncer for capturing structured log output.
type LogSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogSink creates an empty LogSink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Write implements io.Writer.
func (s *LogSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// Sync implements zapcore.WriteSyncer.
func (s *LogSink) Sync() error {
	return nil
}

// String returns everything written so far.
func (s *LogSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Count returns the number of lines containing substr.
func (s *LogSink) Count(substr string) int {
	n := 0
	for _, line := range strings.Split(s.String(), "\n") {
		if line != "" && strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
