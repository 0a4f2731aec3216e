package storage

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoundCost applies the averageCost rounding rule: ceiling to the next
// multiple of 10 (125 -> 130, 100 -> 100).
func RoundCost(avg float64) int {
	return int(math.Ceil(avg/10) * 10)
}

// RecomputeAverageCost refreshes the bootcamp's averageCost from its courses.
// With no courses left the field is unset rather than left stale.
func (s *Store) RecomputeAverageCost(ctx context.Context, bootcampID primitive.ObjectID) error {
	avg, ok, err := s.average(ctx, s.Courses(), bootcampID, "$tuition")
	if err != nil {
		return err
	}
	_, err = s.Bootcamps().UpdateByID(ctx, bootcampID, averageCostMutation(avg, ok))
	return err
}

// RecomputeAverageRating refreshes the bootcamp's averageRating from its
// reviews. The mean is stored unrounded; with no reviews left the field is
// unset.
func (s *Store) RecomputeAverageRating(ctx context.Context, bootcampID primitive.ObjectID) error {
	avg, ok, err := s.average(ctx, s.Reviews(), bootcampID, "$rating")
	if err != nil {
		return err
	}
	_, err = s.Bootcamps().UpdateByID(ctx, bootcampID, averageRatingMutation(avg, ok))
	return err
}

// averageCostMutation decides the bootcamp update for a recomputed cost
// average: rounded $set when courses exist, $unset when the group is empty.
func averageCostMutation(avg float64, ok bool) bson.M {
	if !ok {
		return bson.M{"$unset": bson.M{"averageCost": ""}}
	}
	return bson.M{"$set": bson.M{"averageCost": RoundCost(avg)}}
}

// averageRatingMutation is the rating counterpart; the mean stays unrounded.
func averageRatingMutation(avg float64, ok bool) bson.M {
	if !ok {
		return bson.M{"$unset": bson.M{"averageRating": ""}}
	}
	return bson.M{"$set": bson.M{"averageRating": avg}}
}

// average groups the bootcamp's child records and returns the arithmetic mean
// of the given field. ok is false when the group is empty.
func (s *Store) average(ctx context.Context, coll *mongo.Collection, bootcampID primitive.ObjectID, field string) (float64, bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bootcamp": bootcampID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$bootcamp",
			"average": bson.M{"$avg": field},
		}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, false, err
	}

	var results []struct {
		Average float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, false, err
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	return results[0].Average, true, nil
}
