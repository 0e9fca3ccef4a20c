// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommissionTiers(t *testing.T) {
	tiers := parseCommissionTiers("0:0.10,5000:0.12,20000:0.15")

	assert.Len(t, tiers, 3)
	assert.Equal(t, CommissionTier{MinVolume: 0, Rate: 0.10}, tiers[0])
	assert.Equal(t, CommissionTier{MinVolume: 5000, Rate: 0.12}, tiers[1])
	assert.Equal(t, CommissionTier{MinVolume: 20000, Rate: 0.15}, tiers[2])
}

func TestParseCommissionTiersSkipsMalformedPairs(t *testing.T) {
	tiers := parseCommissionTiers("0:0.10,garbage,5000:not-a-rate, 20000:0.15 ")

	assert.Len(t, tiers, 2)
	assert.Equal(t, 0.0, tiers[0].MinVolume)
	assert.Equal(t, 20000.0, tiers[1].MinVolume)
}

func TestParseCommissionTiersEmpty(t *testing.T) {
	assert.Empty(t, parseCommissionTiers(""))
}

func TestConfigValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		Assignment: AssignmentConfig{
			Strategy:             "alphabetical",
			MaxActiveAssignments: 5,
		},
	}

	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "craftlink",
		Password: "secret",
		Database: "partners",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=partners")
	assert.Contains(t, dsn, "application_name=partner-backend")
	assert.Contains(t, dsn, "password=secret")
}

func TestDatabaseDSNOmitsEmptyPassword(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "craftlink",
		Database: "partners",
		SSLMode:  "disable",
	}

	assert.NotContains(t, cfg.DSN(), "password=")
}

func TestConfigValidateRejectsZeroLoadCap(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		Assignment: AssignmentConfig{
			Strategy:             "combined",
			MaxActiveAssignments: 0,
		},
	}

	assert.Error(t, cfg.Validate())
}
