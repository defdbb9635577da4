package detector_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GreatValueCreamSoda/goflashdetect/detector"
)

func Test_MergeIntervals(t *testing.T) {
	cases := []struct {
		name string
		in   []detector.Interval
		want []detector.Interval
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "single",
			in:   []detector.Interval{{Start: 1, End: 2}},
			want: []detector.Interval{{Start: 1, End: 2}},
		},
		{
			name: "two second gap fuses",
			in: []detector.Interval{
				{Start: 0, End: 5},
				{Start: 7, End: 10},
			},
			want: []detector.Interval{{Start: 0, End: 10}},
		},
		{
			name: "four second gap stays",
			in: []detector.Interval{
				{Start: 0, End: 5},
				{Start: 9, End: 10},
			},
			want: []detector.Interval{
				{Start: 0, End: 5},
				{Start: 9, End: 10},
			},
		},
		{
			name: "chain fuses transitively",
			in: []detector.Interval{
				{Start: 0, End: 5},
				{Start: 7, End: 9},
				{Start: 11, End: 12},
			},
			want: []detector.Interval{{Start: 0, End: 12}},
		},
		{
			name: "exact gap stays",
			in: []detector.Interval{
				{Start: 0, End: 5},
				{Start: 8, End: 10},
			},
			want: []detector.Interval{
				{Start: 0, End: 5},
				{Start: 8, End: 10},
			},
		},
	}

	for _, tc := range cases {
		got := detector.MergeIntervals(tc.in)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: merged intervals mismatch (-want +got):\n%s",
				tc.name, diff)
		}
	}
}

// Merged output never holds two intervals closer than the merge gap.
func Test_MergeIntervals_GapInvariant(t *testing.T) {
	in := []detector.Interval{
		{Start: 0, End: 1},
		{Start: 2, End: 3},
		{Start: 7, End: 8},
		{Start: 9.5, End: 11},
		{Start: 20, End: 21},
	}

	merged := detector.MergeIntervals(in)
	for k := 0; k+1 < len(merged); k++ {
		if merged[k+1].Start-merged[k].End < detector.MergeGapSeconds {
			t.Fatalf("intervals %d and %d closer than the merge gap: %v",
				k, k+1, merged)
		}
	}
}
