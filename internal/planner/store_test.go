package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPlan() *Plan {
	date := time.Date(2026, 8, 29, 10, 23, 45, 0, time.UTC).UnixMilli()
	return &Plan{
		Date: date,
		From: Place{StopID: "1:TR", Name: "Trenton"},
		To:   Place{StopID: "1:NP", Name: "Newark Penn Station"},
		Itineraries: []Itinerary{{
			Duration:  3600,
			StartTime: date + 10*60*1000,
			EndTime:   date + 70*60*1000,
			Transfers: 1,
			Legs: []Leg{{
				Mode:  "RAIL",
				Route: "Northeast Corridor",
				From:  Place{StopID: "1:TR", Name: "Trenton"},
				To:    Place{StopID: "1:NP", Name: "Newark Penn Station"},
			}},
		}},
	}
}

func TestCompress(t *testing.T) {
	plan := testPlan()
	ci := Compress(plan, plan.Itineraries[0], "America/New_York")

	// the plan date is rounded down to the hour so retries within the
	// same hour hash to the same projection
	assert.Zero(t, ci.Date%3600000)
	assert.LessOrEqual(t, ci.Date, plan.Date)
	assert.Equal(t, "Trenton", ci.From)
	assert.Equal(t, "Newark Penn Station", ci.To)
	assert.Equal(t, "America/New_York", ci.Timezone)
	assert.Equal(t, 1, ci.Transfers)
	assert.Len(t, ci.Legs, 1)
}

func TestHashStability(t *testing.T) {
	plan := testPlan()
	ci := Compress(plan, plan.Itineraries[0], "America/New_York")

	t.Run("same projection hashes identically", func(t *testing.T) {
		assert.Equal(t, Hash(ci), Hash(ci))
	})

	t.Run("same trip planned later in the hour hashes identically", func(t *testing.T) {
		retry := testPlan()
		retry.Date += 5 * 60 * 1000
		assert.Equal(t, Hash(ci), Hash(Compress(retry, retry.Itineraries[0], "America/New_York")))
	})

	t.Run("different trips hash differently", func(t *testing.T) {
		other := testPlan()
		other.Itineraries[0].Transfers = 0
		assert.NotEqual(t, Hash(ci), Hash(Compress(other, other.Itineraries[0], "America/New_York")))
	})
}
