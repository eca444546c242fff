package game

import "time"

// Resource is one of the five farmable resource types. ResourceOrder is the
// fixed enumeration order; priority ties between resources are broken by it.
type Resource string

const (
	ResourceGreenStones  Resource = "greenStones"
	ResourcePurpleStones Resource = "purpleStones"
	ResourceGold         Resource = "gold"
	ResourceGacha        Resource = "gacha"
	ResourcePoints       Resource = "points"
)

var ResourceOrder = [...]Resource{
	ResourceGreenStones,
	ResourcePurpleStones,
	ResourceGold,
	ResourceGacha,
	ResourcePoints,
}

func (r Resource) Valid() bool {
	for _, known := range ResourceOrder {
		if r == known {
			return true
		}
	}
	return false
}

// Hero is one of the two farming heroes the client drives.
type Hero string

const (
	HeroBonk   Hero = "bonk"
	HeroDragon Hero = "dragonEpic"
)

var HeroOrder = [...]Hero{HeroBonk, HeroDragon}

// HeroClassUniversal heroes fit any challenge slot.
const HeroClassUniversal = "universal"

// HeroState is one hero's snapshot inside a State. Ready already accounts for
// the unlock timestamp so the policy engine never needs a clock.
type HeroState struct {
	Type           Hero
	Name           string
	Class          string
	Level          int
	Stars          int
	Power          int64
	Ready          bool
	CostLevelGold  int64
	CostLevelGreen int64
	CostLevelGem   int64
	CostStar       int64
}

// Slot is a free challenge slot, by index into the backend's orderedSlots.
type Slot struct {
	Index int
	Class string
}

// ChallengeState is the best open challenge for one resource type at the
// current constellation. Open means unlocked with incomplete progress.
type ChallengeState struct {
	Type               string
	Resource           Resource
	ConstellationIndex int
	Open               bool
	InProgress         bool
	MinLevel           int
	MinStars           int
	MinPower           int64
	Duration           time.Duration
	FreeSlots          []Slot
}

// SlotFor returns the first free slot the hero fits, or -1.
func (c ChallengeState) SlotFor(h HeroState) int {
	for _, slot := range c.FreeSlots {
		if slot.Class == h.Class || h.Class == HeroClassUniversal {
			return slot.Index
		}
	}
	return -1
}

// Farmable reports whether the hero can be sent to this challenge right now.
func (c ChallengeState) Farmable(h HeroState) bool {
	if !c.Open || !h.Ready {
		return false
	}
	if h.Level < c.MinLevel || h.Stars < c.MinStars || h.Power < c.MinPower {
		return false
	}
	return c.SlotFor(h) >= 0
}

// MissionState is one unclaimed mission. NeedsEvent means progress is still
// below the condition, so a mission event must be reported before claiming.
type MissionState struct {
	Key        string
	Claimable  bool
	NeedsEvent bool
}

// Meta carries the already-resolved timer flags from getUserData.
type Meta struct {
	DailyReady         bool
	ChallengeClaimDue  bool
	FreeGachaDue       bool
	ConstellationIndex int

	// ConstellationCleared is set when every challenge of the active
	// constellation reached full progress.
	ConstellationCleared bool
}

// State is one cycle's snapshot of everything the policy engine looks at.
// It is owned by a single runner for the duration of one cycle.
type State struct {
	Gems         int64
	Gold         int64
	GreenStones  int64
	PurpleStones int64
	GachaTokens  int64
	Points       int64
	PackGemCost  int64

	Heroes     map[Hero]HeroState
	Challenges map[Resource]ChallengeState
	Missions   []MissionState
	Meta       Meta

	// HeroCards counts collected cards per hero type; star-ups spend them.
	HeroCards map[string]int64

	// MaxChallengeTime is the longest duration among unfinished challenges
	// that still have heroes inside; the runner sleeps on it when non-zero.
	MaxChallengeTime time.Duration
}

// HeroReady reports whether the hero exists in the snapshot and is idle.
func (s *State) HeroReady(h Hero) bool {
	hero, ok := s.Heroes[h]
	return ok && hero.Ready
}
