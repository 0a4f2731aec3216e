package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRoundCost(t *testing.T) {
	cases := []struct {
		avg  float64
		want int
	}{
		{100, 100},
		{125, 130},
		{9666.666666666666, 9670},
		{1, 10},
		{0, 0},
		{10000, 10000},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RoundCost(c.avg), "avg %v", c.avg)
	}
}

func TestAverageCostMutation(t *testing.T) {
	assert.Equal(t,
		bson.M{"$set": bson.M{"averageCost": 9670}},
		averageCostMutation(9666.666666666666, true))

	// empty group unsets the field instead of leaving it stale
	assert.Equal(t,
		bson.M{"$unset": bson.M{"averageCost": ""}},
		averageCostMutation(0, false))
}

func TestAverageRatingMutation(t *testing.T) {
	assert.Equal(t,
		bson.M{"$set": bson.M{"averageRating": 8.666666666666666}},
		averageRatingMutation(8.666666666666666, true))

	assert.Equal(t,
		bson.M{"$unset": bson.M{"averageRating": ""}},
		averageRatingMutation(0, false))
}
