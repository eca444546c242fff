package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sleepchann/game"
)

func TestParseSessionKeepsDefaultsForUnsetKeys(t *testing.T) {
	t.Parallel()

	s, err := ParseSession(map[string]string{})
	require.NoError(t, err)
	require.Equal(t, DefaultSessionSettings(), s)
}

func TestParseSessionOverridesAndValidates(t *testing.T) {
	t.Parallel()

	s, err := ParseSession(map[string]string{
		"SPEND_GACHAS":             "true",
		"GEMS_SAFE_BALANCE":        "2500",
		"FARM_GOLD":                "false",
		"BONK_PRIORITY_GACHA":      "1",
		"CONSTELLATION_LAST_INDEX": "7",
	})
	require.NoError(t, err)

	require.True(t, s.SpendGachas)
	require.Equal(t, int64(2500), s.GemsSafeBalance)
	require.False(t, s.FarmGold)
	require.Equal(t, 1, s.BonkPriorities[game.ResourceGacha])
	require.NotNil(t, s.ConstellationLastIndex)
	require.Equal(t, 7, *s.ConstellationLastIndex)
}

func TestParseSessionRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"GEMS_SAFE_BALANCE":        {"GEMS_SAFE_BALANCE": "-1"},
		"SPEND_GACHAS":             {"SPEND_GACHAS": "maybe"},
		"CONSTELLATION_LAST_INDEX": {"CONSTELLATION_LAST_INDEX": "minus two"},
		"BONK_PRIORITY":            {"BONK_PRIORITY_GOLD": "9"},
	}
	for key, vals := range cases {
		_, err := ParseSession(vals)

		var cerr *Error
		require.ErrorAs(t, err, &cerr, key)
		require.Equal(t, key, cerr.Key)
	}
}

func TestSessionSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	s := DefaultSessionSettings()
	s.SpendGachas = true
	s.BuyGachaPacks = true
	s.GemsSafeBalance = 50000
	index := 12
	s.ConstellationLastIndex = &index
	s.ConstellationAutoAdvance = true
	s.DragonPriorities[game.ResourceGold] = 5

	path := filepath.Join(t.TempDir(), "alice.env")
	require.NoError(t, s.Save(path))

	loaded, err := LoadSession(path)
	require.NoError(t, err)
	require.Equal(t, s, loaded)
}

func TestLoadSessionMissingFileMeansDefaults(t *testing.T) {
	t.Parallel()

	s, err := LoadSession(filepath.Join(t.TempDir(), "nobody.env"))
	require.NoError(t, err)
	require.Equal(t, DefaultSessionSettings(), s)
}

func TestFarmEnabledFollowsToggles(t *testing.T) {
	t.Parallel()

	s := DefaultSessionSettings()
	require.True(t, s.FarmingEnabled())

	s.FarmGold = false
	require.False(t, s.FarmEnabled(game.ResourceGold))
	require.True(t, s.FarmingEnabled(), "other resources still farm")

	s.FarmGreenStones = false
	s.FarmPurpleStones = false
	s.FarmGacha = false
	s.FarmPoints = false
	require.False(t, s.FarmingEnabled())
}

func TestHeroPrioritiesPicksTheRightTable(t *testing.T) {
	t.Parallel()

	s := DefaultSessionSettings()
	require.Equal(t, s.BonkPriorities, s.HeroPriorities(game.HeroBonk))
	require.Equal(t, s.DragonPriorities, s.HeroPriorities(game.HeroDragon))
}
