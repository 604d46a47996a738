package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

const (
	// CoordinatorIDKey ключ внутреннего ID координатора в контексте
	CoordinatorIDKey contextKey = "coordinator_id"
	// CoordinatorSubjectKey ключ внешнего coordinator_id в контексте
	CoordinatorSubjectKey contextKey = "coordinator_subject"
	// ElevatedKey ключ признака elevated (step-up) токена
	ElevatedKey contextKey = "elevated"
)

// GetCoordinatorID извлекает внутренний ID координатора из контекста запроса
func GetCoordinatorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CoordinatorIDKey).(string)
	return id, ok
}

// GetCoordinatorSubject извлекает внешний coordinator_id из контекста запроса
func GetCoordinatorSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(CoordinatorSubjectKey).(string)
	return subject, ok
}

// IsElevated отвечает, аутентифицирован ли запрос elevated токеном
func IsElevated(ctx context.Context) bool {
	elevated, ok := ctx.Value(ElevatedKey).(bool)
	return ok && elevated
}
