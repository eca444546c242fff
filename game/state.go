package game

import (
	"context"
	"time"

	"sleepchann/constant"
	"sleepchann/request"
)

// FetchOptions controls how FetchState assembles a snapshot.
type FetchOptions struct {
	// ConstellationIndex pins the constellation to farm. When nil the
	// backend's last-reached index is used.
	ConstellationIndex *int
	WithMissions       bool
}

// FetchState gathers user data, the constellation page around the active
// index and optionally missions, and resolves them into a State.
func (c *Client) FetchState(ctx context.Context, opts FetchOptions) (*State, error) {
	user, err := c.GetUserData(ctx)
	if err != nil {
		return nil, err
	}

	index := user.Player.Meta.ConstellationsLastIndex
	if opts.ConstellationIndex != nil {
		index = *opts.ConstellationIndex
	}

	cons, err := c.GetConstellations(ctx, index, constant.ConstellationPageSize)
	if err != nil {
		return nil, err
	}

	var missions *request.MissionsResponse
	if opts.WithMissions {
		if missions, err = c.GetMissions(ctx); err != nil {
			return nil, err
		}
	}

	return BuildState(user, cons, index, missions, time.Now()), nil
}

// BuildState resolves raw API responses into a policy-ready snapshot. Every
// timestamp comparison happens here, against the supplied clock, so the
// result carries plain booleans and the policy engine never needs a clock.
func BuildState(user *request.UserDataResponse, cons *request.ConstellationsResponse, startIndex int, missions *request.MissionsResponse, now time.Time) *State {
	nowMS := now.UnixMilli()
	player := user.Player

	st := &State{
		Gems:         player.Resources.Gem.Amount,
		Gold:         player.Resources.Gold.Amount,
		GreenStones:  player.Resources.GreenStones.Amount,
		PurpleStones: player.Resources.PurpleStones.Amount,
		GachaTokens:  player.Resources.Gacha.Amount,
		Points:       player.Resources.Points.Amount,
		PackGemCost:  player.Costs.GachaGemCost,
		Heroes:       make(map[Hero]HeroState),
		Challenges:   make(map[Resource]ChallengeState),
		HeroCards:    make(map[string]int64),
		Meta: Meta{
			DailyReady:         player.Meta.IsNextDailyRewardAvailable,
			ChallengeClaimDue:  player.Meta.NextChallengeClaimDate > 0 && player.Meta.NextChallengeClaimDate <= nowMS,
			FreeGachaDue:       player.Meta.FreeGachaNextClaim <= nowMS,
			ConstellationIndex: startIndex,
		},
	}
	if st.PackGemCost <= 0 {
		st.PackGemCost = constant.DefaultGachaGemCost
	}

	for _, card := range player.Resources.HeroCard {
		if card.Amount > 0 {
			st.HeroCards[card.HeroType] = card.Amount
		}
	}

	for _, h := range player.Heroes {
		hero := Hero(h.HeroType)
		switch hero {
		case HeroBonk, HeroDragon:
		default:
			continue
		}
		st.Heroes[hero] = HeroState{
			Type:           hero,
			Name:           h.Name,
			Class:          h.Class,
			Level:          h.Level,
			Stars:          h.Stars,
			Power:          h.Power,
			Ready:          h.UnlockAt <= nowMS,
			CostLevelGold:  h.CostLevelGold,
			CostLevelGreen: h.CostLevelGreen,
			CostLevelGem:   h.CostLevelGem,
			CostStar:       h.CostStar,
		}
	}

	if cons != nil && len(cons.Constellations) > 0 {
		buildChallenges(st, cons.Constellations[0], startIndex, nowMS)
		st.Meta.ConstellationCleared = cleared(cons.Constellations[0])
		st.MaxChallengeTime = maxChallengeTime(cons.Constellations)
	}

	if missions != nil {
		for _, m := range missions.Missions {
			if m.Claimed {
				continue
			}
			st.Missions = append(st.Missions, MissionState{
				Key:        m.MissionKey,
				Claimable:  m.Available,
				NeedsEvent: m.Progress < m.Condition,
			})
		}
	}

	return st
}

// buildChallenges keeps the first open challenge per resource type from the
// active constellation, falling back to the first seen when none is open.
func buildChallenges(st *State, constellation request.Constellation, index int, nowMS int64) {
	for _, ch := range constellation.Challenges {
		if ch.ChallengeType == "" {
			continue
		}
		res := Resource(ch.ResourceType)
		if !res.Valid() {
			continue
		}

		cs := ChallengeState{
			Type:               ch.ChallengeType,
			Resource:           res,
			ConstellationIndex: index,
			Open:               ch.UnlockAt <= nowMS && ch.Received < ch.Value,
			InProgress:         anyOccupied(ch.OrderedSlots),
			MinLevel:           ch.MinLevel,
			MinStars:           ch.MinStars,
			MinPower:           ch.Power,
			Duration:           time.Duration(ch.Time) * time.Second,
			FreeSlots:          freeSlots(ch.OrderedSlots, nowMS),
		}

		existing, ok := st.Challenges[res]
		if !ok || (!existing.Open && cs.Open) {
			st.Challenges[res] = cs
		}
	}
}

// cleared reports whether every challenge of the constellation reached full
// progress.
func cleared(constellation request.Constellation) bool {
	if len(constellation.Challenges) == 0 {
		return false
	}
	for _, ch := range constellation.Challenges {
		if ch.Received < ch.Value {
			return false
		}
	}
	return true
}

func anyOccupied(slots []request.ChallengeSlot) bool {
	for _, slot := range slots {
		if occupied(slot) {
			return true
		}
	}
	return false
}

func occupied(slot request.ChallengeSlot) bool {
	return slot.OccupiedBy != "" && slot.OccupiedBy != constant.SlotEmpty
}

func freeSlots(slots []request.ChallengeSlot, nowMS int64) []Slot {
	var free []Slot
	for i, slot := range slots {
		if !slot.Unlocked || occupied(slot) || slot.UnlockAt > nowMS {
			continue
		}
		free = append(free, Slot{Index: i, Class: slot.HeroClass})
	}
	return free
}

// maxChallengeTime scans every fetched constellation for unfinished
// challenges that still have heroes inside and returns the longest duration.
func maxChallengeTime(constellations []request.Constellation) time.Duration {
	var max time.Duration
	for _, constellation := range constellations {
		for _, ch := range constellation.Challenges {
			if ch.Received >= ch.Value {
				continue
			}
			if !anyOccupied(ch.OrderedSlots) {
				continue
			}
			if d := time.Duration(ch.Time) * time.Second; d > max {
				max = d
			}
		}
	}
	return max
}
