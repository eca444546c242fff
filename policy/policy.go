// Package policy decides the single next farming action for an account.
//
// Select is a pure function of the snapshot and the session settings: no
// clock, no I/O, no hidden state. The runner executes the returned action,
// refreshes the snapshot and calls Select again until it gets NoOp.
package policy

import (
	"sleepchann/config"
	"sleepchann/game"
)

// Select picks the highest-precedence action available. Precedence runs
// claims first, then gacha, then gem spends, then leveling, then sending
// heroes out, so short cheap wins land before long commitments.
func Select(state *game.State, cfg config.SessionSettings) Action {
	farming := cfg.FarmingEnabled()

	if farming && state.Meta.DailyReady {
		return Action{Kind: KindClaimDaily}
	}
	if farming && state.Meta.ChallengeClaimDue {
		return Action{Kind: KindClaimChallenges}
	}

	if cfg.ProcessMissions {
		for _, m := range state.Missions {
			if m.Claimable {
				return Action{Kind: KindClaimMission, MissionKey: m.Key, NeedsEvent: m.NeedsEvent}
			}
		}
	}

	if cfg.SpendGachas {
		if state.Meta.FreeGachaDue {
			return Action{Kind: KindFreeGacha}
		}
		if state.GachaTokens > 0 {
			return Action{Kind: KindSpendGacha}
		}
	}

	if cfg.BuyGachaPacks && state.Gems-state.PackGemCost >= cfg.GemsSafeBalance {
		return Action{Kind: KindBuyPack}
	}

	if cfg.UpgradeCards {
		for _, h := range game.HeroOrder {
			if hero, ok := state.Heroes[h]; ok && levelable(state, cfg, hero) {
				return Action{Kind: KindLevelHero, Hero: h}
			}
		}
	}

	for _, h := range game.HeroOrder {
		if a, ok := startChallenge(state, cfg, h); ok {
			return a
		}
	}

	return NoOp
}

// levelable reports whether the hero's next level can be paid for without
// dipping below the gem safe balance.
func levelable(state *game.State, cfg config.SessionSettings, hero game.HeroState) bool {
	if hero.CostLevelGold <= 0 || hero.CostLevelGreen <= 0 {
		return false
	}
	if state.Gold < hero.CostLevelGold || state.GreenStones < hero.CostLevelGreen {
		return false
	}
	if hero.CostLevelGem > 0 && state.Gems-hero.CostLevelGem < cfg.GemsSafeBalance {
		return false
	}
	return true
}

// startChallenge picks the enabled farmable resource with the best priority
// rank for the hero. ResourceOrder breaks rank ties.
func startChallenge(state *game.State, cfg config.SessionSettings, h game.Hero) (Action, bool) {
	hero, ok := state.Heroes[h]
	if !ok || !hero.Ready {
		return NoOp, false
	}

	priorities := cfg.HeroPriorities(h)

	var (
		best     game.ChallengeState
		bestRank int
		found    bool
	)
	for _, res := range game.ResourceOrder {
		if !cfg.FarmEnabled(res) {
			continue
		}
		ch, ok := state.Challenges[res]
		if !ok || !ch.Farmable(hero) {
			continue
		}
		if rank := priorities[res]; !found || rank < bestRank {
			best = ch
			bestRank = rank
			found = true
		}
	}
	if !found {
		return NoOp, false
	}

	return Action{
		Kind:               KindStartChallenge,
		Hero:               h,
		Resource:           best.Resource,
		Challenge:          best.Type,
		ConstellationIndex: best.ConstellationIndex,
		SlotID:             best.SlotFor(hero),
	}, true
}
