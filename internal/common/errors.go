package common

import "fmt"

// AppError 应用级错误结构，带错误码方便日志检索
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装底层错误
func WrapError(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewError 创建不带底层错误的新错误
func NewError(code, message string) error {
	return &AppError{Code: code, Message: message}
}

// 错误码常量
const (
	ErrCodeTwitterAPI   = "TWITTER_API_ERROR"
	ErrCodeAIProcessing = "AI_PROCESSING_ERROR"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeExport       = "EXPORT_ERROR"
	ErrCodeNotification = "NOTIFICATION_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)
