package internal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReconstructPath(t *testing.T) {
	parents := map[int]int{4: 3, 3: 2, 2: 1, 1: 0}
	parentOf := func(n int) (int, bool) {
		p, ok := parents[n]
		return p, ok
	}
	all := func(int) bool { return true }

	tests := []struct {
		name    string
		current int
		keep    func(int) bool
		want    []int
	}{
		{name: "full chain", current: 4, keep: all, want: []int{0, 1, 2, 3, 4}},
		{name: "root only", current: 0, keep: all, want: []int{0}},
		{name: "stops at synthetic root", current: 4, keep: func(n int) bool { return n != 0 }, want: []int{1, 2, 3, 4}},
		{name: "stops at first rejected ancestor", current: 4, keep: func(n int) bool { return n != 2 }, want: []int{3, 4}},
		{name: "current rejected", current: 0, keep: func(n int) bool { return n != 0 }, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconstructPath(tt.current, parentOf, tt.keep)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReconstructPath() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
