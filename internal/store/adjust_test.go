package store

import (
	"math"
	"reflect"
	"testing"

	"github.com/MarcoLSC/echo-emergent/internal/types"
)

func recordWithWeights(weights map[types.Category]int, total int, enabled bool) types.PreferenceRecord {
	rec := types.DefaultPreferenceRecord()
	for c, w := range weights {
		rec.CategoryPreferences[c] = w
	}
	rec.TotalInteractions = total
	rec.DataCollectionEnabled = enabled
	return rec
}

func TestAdjust_IdentityWhenDisabled(t *testing.T) {
	raw := types.Scores{types.CategoryCode: 0.5, types.CategoryUnknown: 0.1}
	rec := recordWithWeights(map[types.Category]int{types.CategoryCode: 100}, 50, false)

	got := Adjust(raw, rec)
	if !reflect.DeepEqual(got, raw) {
		t.Errorf("Adjust with collection disabled = %v, want raw %v", got, raw)
	}
}

func TestAdjust_IdentityWithNoInteractions(t *testing.T) {
	raw := types.Scores{types.CategoryGreeting: 0.5}
	rec := recordWithWeights(map[types.Category]int{types.CategoryGreeting: 10}, 0, true)

	got := Adjust(raw, rec)
	if !reflect.DeepEqual(got, raw) {
		t.Errorf("Adjust with zero interactions = %v, want raw %v", got, raw)
	}
}

func TestAdjust_IdentityBelowWeightThreshold(t *testing.T) {
	raw := types.Scores{types.CategoryFood: 0.4}

	// Total weight of exactly 5 is still below the signal threshold.
	rec := recordWithWeights(map[types.Category]int{
		types.CategoryFood: 3,
		types.CategoryCode: 2,
	}, 4, true)

	got := Adjust(raw, rec)
	if !reflect.DeepEqual(got, raw) {
		t.Errorf("Adjust at totalWeight=5 = %v, want raw %v", got, raw)
	}
}

func TestAdjust_BoostScalesWithPreferenceShare(t *testing.T) {
	raw := types.Scores{
		types.CategoryCode: 0.5,
		types.CategoryFood: 0.4,
	}
	// code holds 8 of 10 total weight, food 2 of 10.
	rec := recordWithWeights(map[types.Category]int{
		types.CategoryCode: 8,
		types.CategoryFood: 2,
	}, 6, true)

	got := Adjust(raw, rec)

	wantCode := 0.5 + 0.5*(8.0/10.0)*0.3
	wantFood := 0.4 + 0.4*(2.0/10.0)*0.3
	if math.Abs(got[types.CategoryCode]-wantCode) > 1e-9 {
		t.Errorf("code = %v, want %v", got[types.CategoryCode], wantCode)
	}
	if math.Abs(got[types.CategoryFood]-wantFood) > 1e-9 {
		t.Errorf("food = %v, want %v", got[types.CategoryFood], wantFood)
	}
}

func TestAdjust_ZeroHistoryCategoryGainsNothing(t *testing.T) {
	raw := types.Scores{
		types.CategoryTask:     0.4,
		types.CategoryQuestion: 0.3,
	}
	rec := recordWithWeights(map[types.Category]int{types.CategoryTask: 10}, 7, true)

	got := Adjust(raw, rec)
	if got[types.CategoryQuestion] != 0.3 {
		t.Errorf("question with no history = %v, want unchanged 0.3", got[types.CategoryQuestion])
	}
	if got[types.CategoryTask] <= 0.4 {
		t.Errorf("task with full history = %v, want boosted above 0.4", got[types.CategoryTask])
	}
}

func TestAdjust_DoesNotMutateInput(t *testing.T) {
	raw := types.Scores{types.CategoryCode: 0.5}
	original := raw.Clone()
	rec := recordWithWeights(map[types.Category]int{types.CategoryCode: 10}, 6, true)

	Adjust(raw, rec)
	if !reflect.DeepEqual(raw, original) {
		t.Errorf("Adjust mutated its input: %v, want %v", raw, original)
	}
}

func TestAdjust_BoostIsBounded(t *testing.T) {
	// Even with all weight on one category, the boost caps at 30% of the
	// category's own raw score.
	raw := types.Scores{types.CategoryGreeting: 1.0}
	rec := recordWithWeights(map[types.Category]int{types.CategoryGreeting: 1000}, 500, true)

	got := Adjust(raw, rec)
	want := 1.0 + 1.0*1.0*0.3
	if math.Abs(got[types.CategoryGreeting]-want) > 1e-9 {
		t.Errorf("greeting = %v, want %v", got[types.CategoryGreeting], want)
	}
}
