package pattern

import "testing"

func TestSplitByPercent(t *testing.T) {
	tests := []struct {
		name               string
		count              int
		easy, medium, hard int
		want               [3]int
	}{
		{"exact", 10, 30, 50, 20, [3]int{3, 5, 2}},
		{"largest remainder to medium", 7, 30, 50, 20, [3]int{2, 4, 1}},
		{"tie goes to easy", 1, 34, 33, 33, [3]int{1, 0, 0}},
		{"two-way tie easy then medium", 3, 33, 33, 34, [3]int{1, 1, 1}},
		{"equal thirds single unit", 1, 33, 34, 33, [3]int{0, 1, 0}},
		{"all easy", 5, 100, 0, 0, [3]int{5, 0, 0}},
		{"zero count", 0, 30, 40, 30, [3]int{0, 0, 0}},
		{"hard remainder wins", 4, 10, 10, 80, [3]int{0, 0, 4}},
		{"zero sum falls to medium", 4, 0, 0, 0, [3]int{0, 4, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitByPercent(tt.count, tt.easy, tt.medium, tt.hard)
			if got != tt.want {
				t.Errorf("SplitByPercent(%d, %d, %d, %d) = %v, want %v",
					tt.count, tt.easy, tt.medium, tt.hard, got, tt.want)
			}
		})
	}
}

func TestSplitByPercent_AlwaysSumsToCount(t *testing.T) {
	mixes := [][3]int{{30, 50, 20}, {33, 33, 34}, {25, 25, 50}, {1, 1, 98}, {0, 100, 0}}
	for _, m := range mixes {
		for count := 0; count <= 50; count++ {
			got := SplitByPercent(count, m[0], m[1], m[2])
			if sum := got[0] + got[1] + got[2]; sum != count {
				t.Fatalf("mix %v count %d: parts %v sum to %d", m, count, got, sum)
			}
		}
	}
}
