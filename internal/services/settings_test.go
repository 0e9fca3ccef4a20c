// internal/services/settings_test.go
package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftlink/partner-backend/internal/models"
)

func TestSettingString(t *testing.T) {
	s, ok := settingString(models.JSONB{"value": "round_robin"})
	assert.True(t, ok)
	assert.Equal(t, "round_robin", s)

	_, ok = settingString(models.JSONB{"value": 3})
	assert.False(t, ok)

	_, ok = settingString(models.JSONB{})
	assert.False(t, ok)
}

func TestSettingFloat(t *testing.T) {
	tests := []struct {
		name  string
		value models.JSONB
		want  float64
		ok    bool
	}{
		{"float64 after a jsonb round-trip", models.JSONB{"value": 0.85}, 0.85, true},
		{"int from a seeded literal", models.JSONB{"value": 2}, 2, true},
		{"int64", models.JSONB{"value": int64(5)}, 5, true},
		{"json.Number", models.JSONB{"value": json.Number("4.5")}, 4.5, true},
		{"string is not numeric", models.JSONB{"value": "4.5"}, 0, false},
		{"missing value key", models.JSONB{}, 0, false},
		{"nil value", models.JSONB{"value": nil}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := settingFloat(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingInt(t *testing.T) {
	n, ok := settingInt(models.JSONB{"value": float64(4)})
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = settingInt(models.JSONB{"value": 2})
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	// Fractional overrides are rejected rather than truncated
	_, ok = settingInt(models.JSONB{"value": 2.5})
	assert.False(t, ok)

	_, ok = settingInt(models.JSONB{"value": "3"})
	assert.False(t, ok)
}
