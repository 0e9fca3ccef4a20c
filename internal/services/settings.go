// internal/services/settings.go
package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/models"
)

// Admin settings are stored as JSONB {"value": x}. Services resolve overrides
// at evaluation time, so a settings change applies to the next decision
// without a restart. A missing or malformed row falls back to the env config.

func lookupSetting(db *gorm.DB, category, key string) (models.JSONB, bool) {
	var setting models.AdminSettings
	if err := db.Where("category = ? AND key = ?", category, key).
		First(&setting).Error; err != nil {
		return nil, false
	}
	return setting.Value, true
}

func settingString(value models.JSONB) (string, bool) {
	s, ok := value["value"].(string)
	return s, ok
}

// settingFloat accepts the numeric shapes a JSONB value can arrive in:
// float64 after a database round-trip, int from seeded literals, json.Number
// from decoders configured with UseNumber.
func settingFloat(value models.JSONB) (float64, bool) {
	switch v := value["value"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func settingInt(value models.JSONB) (int, bool) {
	f, ok := settingFloat(value)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
