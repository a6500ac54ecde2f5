package match

import "testing"

var testThresholds = Thresholds{Floor: 0.15, Low: 0.40, High: 0.75}

func TestClassifyBand(t *testing.T) {
	cases := []struct {
		name string
		sim  float64
		want Band
	}{
		{name: "below_floor", sim: 0.10, want: BandNoEvidence},
		{name: "just_below_floor", sim: 0.1499, want: BandNoEvidence},
		{name: "at_floor", sim: 0.15, want: BandLow},
		{name: "between_floor_and_low", sim: 0.30, want: BandLow},
		{name: "at_low", sim: 0.40, want: BandAmbiguous},
		{name: "between_low_and_high", sim: 0.60, want: BandAmbiguous},
		{name: "at_high", sim: 0.75, want: BandHigh},
		{name: "above_high", sim: 0.95, want: BandHigh},
		{name: "negative_similarity", sim: -0.5, want: BandNoEvidence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyBand(tc.sim, testThresholds)
			if got != tc.want {
				t.Fatalf("ClassifyBand(%v)=%v, want %v", tc.sim, got, tc.want)
			}
		})
	}
}

func TestClassifyBandMonotone(t *testing.T) {
	// Sweep similarity upward; the band rank must never decrease.
	prev := -1
	for s := -1.0; s <= 1.0; s += 0.001 {
		rank := BandRank(ClassifyBand(s, testThresholds))
		if rank < prev {
			t.Fatalf("band rank decreased at s=%v: %d -> %d", s, prev, rank)
		}
		prev = rank
	}
}

func TestDistanceToSimilarity(t *testing.T) {
	if got := DistanceToSimilarity(0); got != 1 {
		t.Fatalf("DistanceToSimilarity(0)=%v, want 1", got)
	}
	if got := DistanceToSimilarity(2); got != -1 {
		t.Fatalf("DistanceToSimilarity(2)=%v, want -1", got)
	}
	if got := DistanceToSimilarity(0.25); got != 0.75 {
		t.Fatalf("DistanceToSimilarity(0.25)=%v, want 0.75", got)
	}
}

func TestAggregateRuleResult(t *testing.T) {
	cases := []struct {
		name  string
		bands []Band
		want  Status
	}{
		{name: "empty", bands: nil, want: StatusNoEvidence},
		{name: "single_high", bands: []Band{BandHigh}, want: StatusFull},
		{name: "high_wins_over_everything", bands: []Band{BandLow, BandAmbiguous, BandHigh, BandNoEvidence}, want: StatusFull},
		{name: "ambiguous_over_low", bands: []Band{BandLow, BandAmbiguous, BandLow}, want: StatusPartial},
		{name: "low_only", bands: []Band{BandLow, BandLow}, want: StatusNone},
		{name: "low_with_no_evidence", bands: []Band{BandNoEvidence, BandLow}, want: StatusNone},
		{name: "all_no_evidence", bands: []Band{BandNoEvidence, BandNoEvidence}, want: StatusNoEvidence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AggregateRuleResult(tc.bands)
			if got != tc.want {
				t.Fatalf("AggregateRuleResult(%v)=%v, want %v", tc.bands, got, tc.want)
			}
		})
	}
}

func TestAggregateIsSupremum(t *testing.T) {
	// The aggregate of any multiset equals the aggregate of its max band.
	all := []Band{BandNoEvidence, BandLow, BandAmbiguous, BandHigh}
	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				bands := []Band{a, b, c}
				maxBand := a
				for _, x := range bands {
					if BandRank(x) > BandRank(maxBand) {
						maxBand = x
					}
				}
				if got, want := AggregateRuleResult(bands), AggregateRuleResult([]Band{maxBand}); got != want {
					t.Fatalf("AggregateRuleResult(%v)=%v, want %v (max %v)", bands, got, want, maxBand)
				}
			}
		}
	}
}
