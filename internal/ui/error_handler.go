package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrorHandler manages error display and prevents spam
type ErrorHandler struct {
	mu              sync.Mutex
	lastError       string
	lastErrorTime   time.Time
	errorCount      int
	suppressUntil   time.Time
	backoffDuration time.Duration
}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		backoffDuration: time.Second,
	}
}

// HandleError processes an error and returns whether it should be displayed
func (e *ErrorHandler) HandleError(err error, component string) (display bool, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err == nil {
		return false, ""
	}

	now := time.Now()
	errorKey := fmt.Sprintf("%s:%v", component, err)

	if now.Before(e.suppressUntil) {
		return false, ""
	}

	// Same error repeating quickly: display twice, then back off.
	if errorKey == e.lastError && now.Sub(e.lastErrorTime) < 5*time.Second {
		e.errorCount++

		if e.errorCount >= 3 {
			e.suppressUntil = now.Add(e.backoffDuration)
			e.backoffDuration = e.backoffDuration * 2
			if e.backoffDuration > 30*time.Second {
				e.backoffDuration = 30 * time.Second
			}
			message = fmt.Sprintf("%s: lỗi lặp lại, tạm ẩn các thông báo tiếp theo", component)
			return true, message
		}

		if e.errorCount == 2 {
			return true, formatErrorMessage(err, component)
		}

		return false, ""
	}

	e.lastError = errorKey
	e.lastErrorTime = now
	e.errorCount = 1
	e.backoffDuration = time.Second

	return true, formatErrorMessage(err, component)
}

// Reset clears the error state
func (e *ErrorHandler) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastError = ""
	e.lastErrorTime = time.Time{}
	e.errorCount = 0
	e.suppressUntil = time.Time{}
	e.backoffDuration = time.Second
}

// formatErrorMessage creates a user-friendly error message
func formatErrorMessage(err error, component string) string {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") {
		return fmt.Sprintf("%s: không kết nối được máy chủ", component)
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out") {
		return fmt.Sprintf("%s: máy chủ phản hồi quá chậm", component)
	}
	if strings.Contains(errStr, "not connected") {
		return fmt.Sprintf("%s: chưa có kết nối, đang thử lại", component)
	}

	return fmt.Sprintf("%s: %v", component, err)
}
