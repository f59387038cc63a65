package core

import "testing"

func TestEvolutionStageForLevel(t *testing.T) {
	cases := []struct {
		level int
		rank  Rank
	}{
		{1, RankBronze},
		{5, RankBronze},
		{6, RankSilver},
		{10, RankSilver},
		{11, RankGold},
		{15, RankGold},
		{16, RankPlatinum},
		{20, RankPlatinum},
		{21, RankDiamond},
		{99, RankDiamond},
	}
	for _, tc := range cases {
		got := EvolutionStageForLevel(tc.level)
		if got.Rank != tc.rank {
			t.Fatalf("level %d: got %s, want %s", tc.level, got.Rank, tc.rank)
		}
		if got.ImageID == "" || got.Width <= 0 || got.Height <= 0 {
			t.Fatalf("level %d: incomplete stage %+v", tc.level, got)
		}
	}
}

func TestEvolutionStageSizesGrow(t *testing.T) {
	prev := 0
	for _, level := range []int{5, 10, 15, 20, 21} {
		stage := EvolutionStageForLevel(level)
		if stage.Width <= prev {
			t.Fatalf("level %d: width %d should exceed previous %d", level, stage.Width, prev)
		}
		prev = stage.Width
	}
}
