// internal/services/assignment_service_test.go
package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateActiveAssignment(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"translated gorm duplicate", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm duplicate", fmt.Errorf("failed to create assignment: %w", gorm.ErrDuplicatedKey), true},
		{
			"raw postgres unique violation naming the index",
			errors.New(`pq: duplicate key value violates unique constraint "idx_assignments_order_active"`),
			true,
		},
		{
			"raw postgres unique violation without index name",
			errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"),
			true,
		},
		{"unrelated database error", errors.New("connection refused"), false},
		{"record not found", gorm.ErrRecordNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateActiveAssignment(tt.err))
		})
	}
}
