package arp

import "github.com/rolandzwaga/krate-audio/dsp/rtcore"

// TrigCondition names the 18 fixed condition-table entries in their
// canonical numeric order. Values at or above TrigConditionCount are
// never produced by ApplyParams, and Load clamps them to the last entry;
// EvaluateCondition treats any such value passed to it directly as
// TrigAlways.
type TrigCondition int

const (
	TrigAlways TrigCondition = iota
	TrigProb10
	TrigProb25
	TrigProb50
	TrigProb75
	TrigProb90
	TrigRatio1_2
	TrigRatio2_2
	TrigRatio1_3
	TrigRatio2_3
	TrigRatio3_3
	TrigRatio1_4
	TrigRatio2_4
	TrigRatio3_4
	TrigRatio4_4
	TrigFirst
	TrigFill
	TrigNotFill

	// TrigConditionCount is the number of defined conditions.
	TrigConditionCount
)

// probability is indexed by TrigProb10..TrigProb90 minus TrigProb10.
var probability = [5]float64{0.10, 0.25, 0.50, 0.75, 0.90}

// ratioAB is indexed by TrigRatio1_2..TrigRatio4_4 minus TrigRatio1_2.
var ratioAB = [9][2]int{
	{1, 2}, {2, 2},
	{1, 3}, {2, 3}, {3, 3},
	{1, 4}, {2, 4}, {3, 4}, {4, 4},
}

// ConditionSeed is the fixed construction-time seed for the condition
// evaluator's PRNG: testability over per-run variation, per §9.
const ConditionSeed uint32 = 7919

// EvaluateCondition reports whether the given condition fires this
// step. rng is advanced (consuming exactly one draw) only for the five
// probability conditions; every other branch, including the >=18
// defensive case, consumes none.
func EvaluateCondition(index int, loopCount uint64, fillActive bool, rng *rtcore.Xorshift32) bool {
	switch {
	case index == int(TrigAlways):
		return true
	case index >= int(TrigProb10) && index <= int(TrigProb90):
		p := probability[index-int(TrigProb10)]

		return rng.NextUnipolar() < p
	case index >= int(TrigRatio1_2) && index <= int(TrigRatio4_4):
		ab := ratioAB[index-int(TrigRatio1_2)]
		a, b := ab[0], ab[1]

		return loopCount%uint64(b) == uint64(a-1)
	case index == int(TrigFirst):
		return loopCount == 0
	case index == int(TrigFill):
		return fillActive
	case index == int(TrigNotFill):
		return !fillActive
	default:
		return true
	}
}
