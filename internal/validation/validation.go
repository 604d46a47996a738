package validation

import (
	"regexp"
	"strings"

	"github.com/iudanet/fieldsync/internal/models"
)

// CoordinatorIDPattern определяет допустимый формат идентификатора координатора
// Только латинские буквы (a-z, A-Z), цифры (0-9), дефис и нижнее подчеркивание
// Длина: 3-64 символа
var CoordinatorIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

const (
	// MinJustificationLen минимальная длина обоснования manual override
	MinJustificationLen = 10

	// MinAccessKeyLen минимальная длина access key координатора
	MinAccessKeyLen = 12
)

// ValidateJustification проверяет, что обоснование override нетривиально.
// Пробелы по краям не считаются содержимым.
func ValidateJustification(justification string) error {
	trimmed := strings.TrimSpace(justification)
	if trimmed == "" {
		return models.NewValidationError("override justification cannot be empty")
	}
	if len(trimmed) < MinJustificationLen {
		return models.NewValidationError("override justification must be at least 10 characters long")
	}
	return nil
}

// ValidateScore проверяет, что score укладывается в диапазон [0, 100]
func ValidateScore(score int) error {
	if score < 0 || score > 100 {
		return models.NewValidationError("priority score must be in range [0, 100]")
	}
	return nil
}

// ValidateCoordinatorID проверяет формат идентификатора координатора
func ValidateCoordinatorID(id string) error {
	if id == "" {
		return models.NewValidationError("coordinator id cannot be empty")
	}
	if !CoordinatorIDPattern.MatchString(id) {
		return models.NewValidationError("coordinator id can only contain letters, numbers, hyphens and underscores (3-64 characters)")
	}
	return nil
}

// ValidateAccessKey проверяет минимальные требования к access key
func ValidateAccessKey(key string) error {
	if key == "" {
		return models.NewValidationError("access key cannot be empty")
	}
	if len(key) < MinAccessKeyLen {
		return models.NewValidationError("access key must be at least 12 characters long")
	}
	return nil
}
