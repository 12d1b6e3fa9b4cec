package logging

import (
	"bytes"
	"strings"
	"sync"
)

// LineWriter adapts a byte stream, such as a server subprocess's stderr, to
// the structured logger. Each complete line becomes one entry. Lines that
// announce their own severity ("ERROR:", "WARN", "[debug]", ...) are logged at
// that level; everything else uses the writer's default level.
type LineWriter struct {
	logger Logger
	level  Level

	mu  sync.Mutex
	buf bytes.Buffer
}

// maxLine bounds how much of an unterminated line is buffered
const maxLine = 64 * 1024

// NewLineWriter creates a LineWriter that logs at level unless a line says otherwise
func NewLineWriter(logger Logger, level Level, fields ...Field) *LineWriter {
	return &LineWriter{logger: logger.WithFields(fields...), level: level}
}

// Write implements io.Writer
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// incomplete line; keep it for the next write
			if len(line) > maxLine {
				w.emit(line)
			} else {
				w.buf.WriteString(line)
			}
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Close flushes any buffered partial line
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
	return nil
}

func (w *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}

	switch detectLevel(line, w.level) {
	case DebugLevel:
		w.logger.Debug(line)
	case WarnLevel:
		w.logger.Warn(line)
	case ErrorLevel:
		w.logger.Error(line)
	default:
		w.logger.Info(line)
	}
}

// detectLevel looks for a severity marker near the start of a line
func detectLevel(line string, fallback Level) Level {
	head := line
	if len(head) > 32 {
		head = head[:32]
	}
	head = strings.ToUpper(head)

	switch {
	case strings.Contains(head, "ERROR"), strings.Contains(head, "FATAL"), strings.Contains(head, "PANIC"):
		return ErrorLevel
	case strings.Contains(head, "WARN"):
		return WarnLevel
	case strings.Contains(head, "DEBUG"), strings.Contains(head, "TRACE"):
		return DebugLevel
	case strings.Contains(head, "INFO"):
		return InfoLevel
	}
	return fallback
}
