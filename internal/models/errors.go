package models

import "errors"

// ValidationError ошибка валидации входных данных.
// Единственный класс ошибок, который очередь и менеджер откатов
// возвращают вызывающему синхронно; ожидаемые сбои синхронизации
// выражаются переходами состояний, а не ошибками.
type ValidationError struct {
	msg string
}

// NewValidationError создает новую ошибку валидации
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string {
	return e.msg
}

// IsValidationError отвечает, является ли ошибка ошибкой валидации
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
