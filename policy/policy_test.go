package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sleepchann/config"
	"sleepchann/game"
)

func testState() *game.State {
	return &game.State{
		Heroes: map[game.Hero]game.HeroState{
			game.HeroBonk: {
				Type:  game.HeroBonk,
				Class: game.HeroClassUniversal,
				Level: 10, Stars: 3, Power: 1000,
				Ready: true,
			},
			game.HeroDragon: {
				Type:  game.HeroDragon,
				Class: "epic",
				Level: 10, Stars: 3, Power: 1000,
				Ready: true,
			},
		},
		Challenges: map[game.Resource]game.ChallengeState{},
	}
}

func openChallenge(res game.Resource, index int) game.ChallengeState {
	return game.ChallengeState{
		Type:               string(res) + "Challenge",
		Resource:           res,
		ConstellationIndex: index,
		Open:               true,
		MinLevel:           1,
		MinStars:           1,
		FreeSlots: []game.Slot{
			{Index: 0, Class: game.HeroClassUniversal},
			{Index: 1, Class: "epic"},
		},
	}
}

func TestSelectPicksHighestPriorityResource(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroDragon)
	state.Challenges[game.ResourceGreenStones] = openChallenge(game.ResourceGreenStones, 0)
	state.Challenges[game.ResourceGold] = openChallenge(game.ResourceGold, 0)
	state.Challenges[game.ResourceGacha] = openChallenge(game.ResourceGacha, 0)

	cfg := config.DefaultSessionSettings()
	cfg.UpgradeCards = false

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind)
	require.Equal(t, game.HeroBonk, action.Hero)
	require.Equal(t, game.ResourceGold, action.Resource, "gold has bonk rank 1 of the farmable set")
}

func TestSelectBreaksPriorityTiesByResourceOrder(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroDragon)
	state.Challenges[game.ResourceGreenStones] = openChallenge(game.ResourceGreenStones, 0)
	state.Challenges[game.ResourcePurpleStones] = openChallenge(game.ResourcePurpleStones, 0)

	cfg := config.DefaultSessionSettings()
	cfg.UpgradeCards = false
	cfg.BonkPriorities[game.ResourceGreenStones] = 2
	cfg.BonkPriorities[game.ResourcePurpleStones] = 2

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind)
	require.Equal(t, game.ResourceGreenStones, action.Resource, "greenStones precedes purpleStones in the resource order")
}

func TestSelectHonorsFarmToggles(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroDragon)
	state.Challenges[game.ResourceGold] = openChallenge(game.ResourceGold, 0)
	state.Challenges[game.ResourceGacha] = openChallenge(game.ResourceGacha, 0)

	cfg := config.DefaultSessionSettings()
	cfg.UpgradeCards = false
	cfg.FarmGold = false

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind)
	require.Equal(t, game.ResourceGacha, action.Resource)
}

func TestSelectReturnsNoOpWhenEverythingDisabled(t *testing.T) {
	t.Parallel()

	state := testState()
	state.Meta.DailyReady = true
	state.Meta.ChallengeClaimDue = true
	state.Meta.FreeGachaDue = true
	state.GachaTokens = 42
	state.Gems = 1_000_000
	state.PackGemCost = 500
	state.Missions = []game.MissionState{{Key: "mission_daily", Claimable: true}}
	for _, res := range game.ResourceOrder {
		state.Challenges[res] = openChallenge(res, 0)
	}

	cfg := config.DefaultSessionSettings()
	cfg.FarmGreenStones = false
	cfg.FarmPurpleStones = false
	cfg.FarmGold = false
	cfg.FarmGacha = false
	cfg.FarmPoints = false
	cfg.UpgradeCards = false
	cfg.ProcessMissions = false
	cfg.SpendGachas = false
	cfg.BuyGachaPacks = false

	require.Equal(t, NoOp, Select(state, cfg))
}

func TestSelectIsDeterministic(t *testing.T) {
	t.Parallel()

	state := testState()
	state.Gold = 10_000
	state.GreenStones = 10_000
	state.Heroes[game.HeroBonk] = withCosts(state.Heroes[game.HeroBonk], 100, 50, 0)
	for _, res := range game.ResourceOrder {
		state.Challenges[res] = openChallenge(res, 3)
	}

	cfg := config.DefaultSessionSettings()

	first := Select(state, cfg)
	second := Select(state, cfg)
	require.Equal(t, first, second)
}

func TestSelectPrecedence(t *testing.T) {
	t.Parallel()

	state := testState()
	state.Meta.DailyReady = true
	state.Meta.ChallengeClaimDue = true
	state.Meta.FreeGachaDue = true
	state.GachaTokens = 3
	state.Gems = 10_000
	state.PackGemCost = 500
	state.Gold = 1_000
	state.GreenStones = 500
	state.Missions = []game.MissionState{{Key: "mission_login", Claimable: true, NeedsEvent: true}}
	state.Heroes[game.HeroBonk] = withCosts(state.Heroes[game.HeroBonk], 100, 50, 0)
	state.Challenges[game.ResourceGold] = openChallenge(game.ResourceGold, 0)

	cfg := config.DefaultSessionSettings()
	cfg.ProcessMissions = true
	cfg.SpendGachas = true
	cfg.BuyGachaPacks = true
	cfg.GemsSafeBalance = 1_000

	action := Select(state, cfg)
	require.Equal(t, KindClaimDaily, action.Kind)

	state.Meta.DailyReady = false
	require.Equal(t, KindClaimChallenges, Select(state, cfg).Kind)

	state.Meta.ChallengeClaimDue = false
	action = Select(state, cfg)
	require.Equal(t, KindClaimMission, action.Kind)
	require.Equal(t, "mission_login", action.MissionKey)
	require.True(t, action.NeedsEvent)

	state.Missions = nil
	require.Equal(t, KindFreeGacha, Select(state, cfg).Kind)

	state.Meta.FreeGachaDue = false
	require.Equal(t, KindSpendGacha, Select(state, cfg).Kind)

	state.GachaTokens = 0
	require.Equal(t, KindBuyPack, Select(state, cfg).Kind)

	state.Gems = 1_200
	action = Select(state, cfg)
	require.Equal(t, KindLevelHero, action.Kind)
	require.Equal(t, game.HeroBonk, action.Hero)

	state.Gold = 10
	action = Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind)
	require.Equal(t, game.ResourceGold, action.Resource)

	state.Challenges = map[game.Resource]game.ChallengeState{}
	require.Equal(t, NoOp, Select(state, cfg))
}

func TestSelectSuppressesBuyPackNearSafeBalance(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroDragon)
	state.Gems = 1_050
	state.PackGemCost = 100
	state.Challenges[game.ResourceGold] = openChallenge(game.ResourceGold, 0)

	cfg := config.DefaultSessionSettings()
	cfg.UpgradeCards = false
	cfg.BuyGachaPacks = true
	cfg.GemsSafeBalance = 1_000

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind, "buying would dip below the safe balance")

	state.Gems = 1_100
	require.Equal(t, KindBuyPack, Select(state, cfg).Kind, "exactly reaching the safe balance is allowed")
}

func TestSelectSuppressesGemLevelUpNearSafeBalance(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroDragon)
	state.Gold = 10_000
	state.GreenStones = 10_000
	state.Gems = 1_050
	state.Heroes[game.HeroBonk] = withCosts(state.Heroes[game.HeroBonk], 100, 50, 100)
	state.Challenges[game.ResourceGold] = openChallenge(game.ResourceGold, 0)

	cfg := config.DefaultSessionSettings()
	cfg.GemsSafeBalance = 1_000

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind)

	state.Gems = 1_100
	require.Equal(t, KindLevelHero, Select(state, cfg).Kind)
}

func TestSelectLevelHeroNeedsBothStoneCosts(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroDragon)
	state.Gold = 10_000
	state.GreenStones = 10_000
	state.Heroes[game.HeroBonk] = withCosts(state.Heroes[game.HeroBonk], 100, 0, 0)
	state.Challenges[game.ResourceGold] = openChallenge(game.ResourceGold, 0)

	cfg := config.DefaultSessionSettings()

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind, "a zero green cost means the hero is not levelable")
}

func TestSelectSkipsBusyHero(t *testing.T) {
	t.Parallel()

	state := testState()
	bonk := state.Heroes[game.HeroBonk]
	bonk.Ready = false
	state.Heroes[game.HeroBonk] = bonk
	state.Challenges[game.ResourcePurpleStones] = openChallenge(game.ResourcePurpleStones, 0)

	cfg := config.DefaultSessionSettings()
	cfg.UpgradeCards = false

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind)
	require.Equal(t, game.HeroDragon, action.Hero)
	require.Equal(t, game.ResourcePurpleStones, action.Resource)
}

func TestSelectChallengeCarriesIndexAndSlot(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroBonk)
	ch := openChallenge(game.ResourcePurpleStones, 7)
	ch.FreeSlots = []game.Slot{{Index: 2, Class: "epic"}}
	state.Challenges[game.ResourcePurpleStones] = ch

	cfg := config.DefaultSessionSettings()
	cfg.UpgradeCards = false

	action := Select(state, cfg)
	require.Equal(t, KindStartChallenge, action.Kind)
	require.Equal(t, 7, action.ConstellationIndex)
	require.Equal(t, 2, action.SlotID)
	require.Equal(t, "purpleStonesChallenge", action.Challenge)
}

func TestSelectIgnoresUnfarmableChallenges(t *testing.T) {
	t.Parallel()

	state := testState()
	delete(state.Heroes, game.HeroDragon)

	tooHard := openChallenge(game.ResourceGold, 0)
	tooHard.MinLevel = 99
	state.Challenges[game.ResourceGold] = tooHard

	closed := openChallenge(game.ResourceGacha, 0)
	closed.Open = false
	state.Challenges[game.ResourceGacha] = closed

	full := openChallenge(game.ResourcePoints, 0)
	full.FreeSlots = nil
	state.Challenges[game.ResourcePoints] = full

	cfg := config.DefaultSessionSettings()
	cfg.UpgradeCards = false

	require.Equal(t, NoOp, Select(state, cfg))
}

func withCosts(hero game.HeroState, gold, green, gem int64) game.HeroState {
	hero.CostLevelGold = gold
	hero.CostLevelGreen = green
	hero.CostLevelGem = gem
	return hero
}
