package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/fieldsync/internal/models"
)

func TestValidateJustification(t *testing.T) {
	tests := []struct {
		name          string
		justification string
		wantErr       bool
	}{
		{"valid", "Field team reports critical damage", false},
		{"exactly 10 chars", "0123456789", false},
		{"too short", "too short", true},
		{"nine chars", "123456789", true},
		{"empty", "", true},
		{"whitespace only", "           ", true},
		{"padded short", "   short    ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJustification(tt.justification)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, models.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateScore(t *testing.T) {
	assert.NoError(t, ValidateScore(0))
	assert.NoError(t, ValidateScore(100))
	assert.Error(t, ValidateScore(-1))
	assert.Error(t, ValidateScore(101))
}

func TestValidateCoordinatorID(t *testing.T) {
	assert.NoError(t, ValidateCoordinatorID("coord-07"))
	assert.NoError(t, ValidateCoordinatorID("field_lead_north"))
	assert.Error(t, ValidateCoordinatorID(""))
	assert.Error(t, ValidateCoordinatorID("ab"))
	assert.Error(t, ValidateCoordinatorID("с пробелами"))
	assert.Error(t, ValidateCoordinatorID(strings.Repeat("x", 65)))
}

func TestValidateAccessKey(t *testing.T) {
	assert.NoError(t, ValidateAccessKey("long-enough-key"))
	assert.Error(t, ValidateAccessKey(""))
	assert.Error(t, ValidateAccessKey("short"))
}
