package policy

import "sleepchann/game"

// Kind tags an Action. The zero value is NoOp.
type Kind int

const (
	KindNoOp Kind = iota
	KindClaimDaily
	KindClaimChallenges
	KindClaimMission
	KindFreeGacha
	KindSpendGacha
	KindBuyPack
	KindLevelHero
	KindStartChallenge
)

func (k Kind) String() string {
	switch k {
	case KindClaimDaily:
		return "claim_daily"
	case KindClaimChallenges:
		return "claim_challenges"
	case KindClaimMission:
		return "claim_mission"
	case KindFreeGacha:
		return "free_gacha"
	case KindSpendGacha:
		return "spend_gacha"
	case KindBuyPack:
		return "buy_pack"
	case KindLevelHero:
		return "level_hero"
	case KindStartChallenge:
		return "start_challenge"
	}
	return "noop"
}

// Action is one decision for the runner to execute. Only the fields relevant
// to the Kind are set. Actions are comparable, so the runner can recognize a
// repeated decision after a failed execution.
type Action struct {
	Kind Kind

	// StartChallenge and LevelHero.
	Hero game.Hero

	// StartChallenge.
	Resource           game.Resource
	Challenge          string
	ConstellationIndex int
	SlotID             int

	// ClaimMission. NeedsEvent asks the runner to report a mission event
	// before claiming.
	MissionKey string
	NeedsEvent bool
}

// NoOp is the empty decision.
var NoOp = Action{}
