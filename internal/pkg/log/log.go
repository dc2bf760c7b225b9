package log

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

type contextKey string

const (
	contextKeyRequestID  contextKey = "request_id"
	contextKeyBusinessID contextKey = "business_id"
)

var debugEnabled atomic.Bool

// SetDebug toggles Debug and Dump output
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// WithRequestID adds request ID to context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// WithBusinessID adds the tenant id to context for logging
func WithBusinessID(ctx context.Context, businessID string) context.Context {
	return context.WithValue(ctx, contextKeyBusinessID, businessID)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(key).(string); ok {
		return id
	}
	return ""
}

// formatLog formats log message with optional request and business IDs
func formatLog(ctx context.Context, format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	if businessID := getString(ctx, contextKeyBusinessID); businessID != "" {
		msg = fmt.Sprintf("[business_id=%s] %s", businessID, msg)
	}
	if requestID := getString(ctx, contextKeyRequestID); requestID != "" {
		msg = fmt.Sprintf("[req_id=%s] %s", requestID, msg)
	}
	return msg
}

// Info log information
func Info(format string, a ...interface{}) {
	InfoWithContext(nil, format, a...)
}

// InfoWithContext logs information with context (includes request ID if available)
func InfoWithContext(ctx context.Context, format string, a ...interface{}) {
	info := color.New(color.FgWhite, color.BgGreen).SprintFunc()
	fmt.Printf("%s ", info("[INFO] "))
	fmt.Println(formatLog(ctx, format, a...))
}

// Warn log warning
func Warn(format string, a ...interface{}) {
	WarnWithContext(nil, format, a...)
}

// WarnWithContext logs warning with context (includes request ID if available)
func WarnWithContext(ctx context.Context, format string, a ...interface{}) {
	warn := color.New(color.FgWhite, color.BgYellow).SprintFunc()
	fmt.Printf("%s ", warn("[WARN] "))
	fmt.Println(formatLog(ctx, format, a...))
}

// Error log error
func Error(format string, a ...interface{}) {
	ErrorWithContext(nil, format, a...)
}

// ErrorWithContext logs error with context (includes request ID if available)
func ErrorWithContext(ctx context.Context, format string, a ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Printf("%s ", red("[Error]"))
	fmt.Println(formatLog(ctx, format, a...))
}

// Debug logs only when debug output is enabled
func Debug(format string, a ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("%s ", cyan("[DEBUG]"))
	fmt.Printf(format, a...)
	fmt.Println()
}

// Dump pretty-prints values when debug output is enabled
func Dump(label string, a ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	Debug("%s:\n%s", label, spew.Sdump(a...))
}
