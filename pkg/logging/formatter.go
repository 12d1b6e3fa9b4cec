package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var levelColors = map[Level]string{
	DebugLevel: "\033[90m",
	InfoLevel:  "\033[34m",
	WarnLevel:  "\033[33m",
	ErrorLevel: "\033[31m",
}

const colorReset = "\033[0m"

// TextFormatter writes one line per entry:
//
//	2024-05-01 12:00:00.000 [INFO] <server> [request] component/operation: message | k=v
type TextFormatter struct {
	TimestampFormat  string
	DisableColors    bool
	DisableTimestamp bool
}

// NewTextFormatter creates a text formatter with millisecond timestamps
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: "2006-01-02 15:04:05.000"}
}

// Format implements Formatter
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder

	if !f.DisableTimestamp {
		b.WriteString(entry.Timestamp.Format(f.TimestampFormat))
		b.WriteByte(' ')
	}

	level := "[" + entry.Level.String() + "]"
	if color, ok := levelColors[entry.Level]; ok && !f.DisableColors {
		level = color + level + colorReset
	}
	b.WriteString(level)
	b.WriteByte(' ')

	if entry.Server != "" {
		fmt.Fprintf(&b, "<%s> ", entry.Server)
	}
	if entry.RequestID != "" {
		fmt.Fprintf(&b, "[%s] ", entry.RequestID)
	}
	if entry.Component != "" {
		b.WriteString(entry.Component)
		if entry.Operation != "" {
			b.WriteByte('/')
			b.WriteString(entry.Operation)
		}
		b.WriteString(": ")
	}
	b.WriteString(entry.Message)

	if pairs := textPairs(entry); len(pairs) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(pairs, " "))
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// textPairs renders the fields not already shown in the header, sorted by key
func textPairs(entry *Entry) []string {
	shown := map[string]bool{
		"request_id": entry.RequestID != "",
		"server":     entry.Server != "",
		"component":  entry.Component != "",
		"operation":  entry.Component != "" && entry.Operation != "",
	}

	pairs := make([]string, 0, len(entry.Fields))
	for k, v := range entry.Fields {
		if shown[k] {
			continue
		}
		pairs = append(pairs, k+"="+textValue(v))
	}
	sort.Strings(pairs)
	return pairs
}

func textValue(v interface{}) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case error:
		s = val.Error()
	case []byte:
		return strconv.Quote(string(val))
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// JSONFormatter writes one JSON object per line
type JSONFormatter struct {
	TimestampFormat  string
	DisableTimestamp bool
}

// NewJSONFormatter creates a JSON formatter with RFC 3339 millisecond timestamps
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
}

// Format implements Formatter
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		switch val := v.(type) {
		case error:
			data[k] = val.Error()
		case time.Duration:
			data[k] = val.String()
		case []byte:
			data[k] = string(val)
		default:
			data[k] = v
		}
	}
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if !f.DisableTimestamp {
		data["timestamp"] = entry.Timestamp.Format(f.TimestampFormat)
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal log entry: %w", err)
	}
	return append(out, '\n'), nil
}
