package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"vermietung-backend/models"
)

// Bookings migrate check_in/check_out as timestamptz, so the exclusion
// constraint must build its range with tstzrange. tsrange(timestamptz,
// timestamptz) does not resolve and would roll back the whole migration.
func TestOverlapConstraintRangeTypeMatchesColumns(t *testing.T) {
	assert.Contains(t, exclusionDDL, "tstzrange(check_in, check_out)")
	assert.NotContains(t, exclusionDDL, " tsrange(")
}

func TestOverlapConstraintGuardsActiveStatuses(t *testing.T) {
	assert.Contains(t, exclusionDDL, "excl_bookings_unit_active_overlap")
	assert.Contains(t, exclusionDDL, "unit_id WITH =")
	for _, status := range models.ActiveBookingStatuses {
		assert.True(t, strings.Contains(exclusionDDL, "'"+string(status)+"'"),
			"status %s missing from exclusion constraint", status)
	}
}
