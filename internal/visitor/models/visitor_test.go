package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "visitflow/pkg/domain"
)

func TestParseVisitorStatus(t *testing.T) {
	for _, valid := range []string{"Planned", "Arrived", "Left"} {
		st, err := ParseVisitorStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, VisitorStatus(valid), st)
	}

	for _, invalid := range []string{"", "planned", "ARRIVED", "Gone"} {
		_, err := ParseVisitorStatus(invalid)
		assert.Error(t, err, "status %q", invalid)
	}
}

func TestCheckInvariants(t *testing.T) {
	arrived := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	left := arrived.Add(2 * time.Hour)
	before := arrived.Add(-time.Minute)

	cases := []struct {
		name    string
		visitor Visitor
		ok      bool
	}{
		{"planned", Visitor{Status: StatusPlanned}, true},
		{"planned with arrival", Visitor{Status: StatusPlanned, ArrivedAt: &arrived}, false},
		{"arrived", Visitor{Status: StatusArrived, ArrivedAt: &arrived}, true},
		{"arrived without timestamp", Visitor{Status: StatusArrived}, false},
		{"arrived with departure", Visitor{Status: StatusArrived, ArrivedAt: &arrived, LeftAt: &left}, false},
		{"left", Visitor{Status: StatusLeft, ArrivedAt: &arrived, LeftAt: &left}, true},
		{"left before arriving", Visitor{Status: StatusLeft, ArrivedAt: &arrived, LeftAt: &before}, false},
		{"left without arrival", Visitor{Status: StatusLeft, LeftAt: &left}, false},
		{"unknown status", Visitor{Status: "Gone"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.visitor.ID = id.NewVisitorID()
			err := tc.visitor.CheckInvariants()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	stamp := time.Date(2025, 6, 11, 3, 30, 0, 0, loc)

	// 03:30 at UTC+5 is still June 10th in UTC.
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), DateOnly(stamp))
	assert.Equal(t, DateOnly(stamp), DateOnly(DateOnly(stamp)))
}
