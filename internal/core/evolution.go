package core

type Rank string

const (
	RankBronze   Rank = "Bronze"
	RankSilver   Rank = "Silver"
	RankGold     Rank = "Gold"
	RankPlatinum Rank = "Platinum"
	RankDiamond  Rank = "Diamond"
)

// EvolutionStage describes how the companion avatar is presented for a level
// band. ImageID refers to an asset known to the client.
type EvolutionStage struct {
	Rank    Rank   `json:"rank"`
	ImageID string `json:"image_id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

var evolutionStages = []struct {
	maxLevel int
	stage    EvolutionStage
}{
	{5, EvolutionStage{Rank: RankBronze, ImageID: "bronze-avatar", Width: 80, Height: 80}},
	{10, EvolutionStage{Rank: RankSilver, ImageID: "silver-avatar", Width: 100, Height: 100}},
	{15, EvolutionStage{Rank: RankGold, ImageID: "gold-avatar", Width: 120, Height: 120}},
	{20, EvolutionStage{Rank: RankPlatinum, ImageID: "platinum-avatar", Width: 150, Height: 150}},
}

var diamondStage = EvolutionStage{Rank: RankDiamond, ImageID: "diamond-avatar", Width: 180, Height: 180}

// EvolutionStageForLevel maps a companion level to its display stage.
// Levels at or below 5 are Bronze, 21 and above Diamond.
func EvolutionStageForLevel(level int) EvolutionStage {
	for _, band := range evolutionStages {
		if level <= band.maxLevel {
			return band.stage
		}
	}
	return diamondStage
}
