// Package battle implements the NPC fight that rewards coins.
package battle

import "shi-bot/internal/game"

const (
	// Opponent is the tag recorded for every NPC fight.
	Opponent = "NPC"

	MaxPlayerBonus = 5
	MinNPCPower    = 3
	MaxNPCPower    = 18
	MinRewardCoins = 10
	MaxRewardCoins = 50
)

// Outcome is the result of a single fight before any balance is touched.
type Outcome struct {
	PlayerPower int
	NPCPower    int
	Win         bool
	RewardCoins int64
}

// Fight rolls a battle for a player of the given level. The player power is
// the level plus a bonus in [0,5] and the NPC power is in [3,18]; ties go to
// the player. Coins in [10,50] are awarded whether the player wins or not.
func Fight(src game.Source, level int) Outcome {
	player := level + game.Between(src, 0, MaxPlayerBonus)
	npc := game.Between(src, MinNPCPower, MaxNPCPower)
	return Outcome{
		PlayerPower: player,
		NPCPower:    npc,
		Win:         player >= npc,
		RewardCoins: int64(game.Between(src, MinRewardCoins, MaxRewardCoins)),
	}
}
