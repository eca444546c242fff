package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"sleepchann/game"
)

// Priorities ranks the five resources for one hero, 1 highest through 5
// lowest. Equal ranks are allowed; the resource order breaks ties.
type Priorities map[game.Resource]int

func (p Priorities) validate(prefix string) error {
	for _, res := range game.ResourceOrder {
		rank, ok := p[res]
		if !ok || rank < 1 || rank > 5 {
			return &Error{Key: prefix, Reason: fmt.Sprintf("priority for %s must be between 1 and 5", res)}
		}
	}
	return nil
}

// SessionSettings are the per-account knobs, stored next to each session as
// sessions/<name>.env. Unset keys keep their defaults.
type SessionSettings struct {
	BuyGachaPacks   bool
	SpendGachas     bool
	GemsSafeBalance int64
	ProcessMissions bool
	UpgradeCards    bool

	FarmGreenStones  bool
	FarmPurpleStones bool
	FarmGold         bool
	FarmGacha        bool
	FarmPoints       bool

	// ConstellationLastIndex pins the farmed constellation; nil follows
	// the backend's own index. ConstellationAutoAdvance lets a pinned
	// index move forward once the backend progresses past it.
	ConstellationLastIndex   *int
	ConstellationAutoAdvance bool

	BonkPriorities   Priorities
	DragonPriorities Priorities
}

func DefaultSessionSettings() SessionSettings {
	return SessionSettings{
		GemsSafeBalance:  100000,
		UpgradeCards:     true,
		FarmGreenStones:  true,
		FarmPurpleStones: true,
		FarmGold:         true,
		FarmGacha:        true,
		FarmPoints:       true,
		BonkPriorities: Priorities{
			game.ResourceGreenStones:  3,
			game.ResourcePurpleStones: 4,
			game.ResourceGold:         1,
			game.ResourceGacha:        2,
			game.ResourcePoints:       5,
		},
		DragonPriorities: Priorities{
			game.ResourceGreenStones:  2,
			game.ResourcePurpleStones: 1,
			game.ResourceGold:         3,
			game.ResourceGacha:        4,
			game.ResourcePoints:       5,
		},
	}
}

// priorityKeys maps env key suffixes to resources for both hero prefixes.
var priorityKeys = []struct {
	Suffix string
	Res    game.Resource
}{
	{"GREEN", game.ResourceGreenStones},
	{"PURPLE", game.ResourcePurpleStones},
	{"GOLD", game.ResourceGold},
	{"GACHA", game.ResourceGacha},
	{"POINTS", game.ResourcePoints},
}

// LoadSession reads the session's .env file. A missing file means defaults.
func LoadSession(path string) (SessionSettings, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSessionSettings(), nil
		}
		return SessionSettings{}, fmt.Errorf("read session settings: %w", err)
	}
	return ParseSession(vals)
}

// ParseSession applies the given key/value pairs over the defaults and
// validates the result.
func ParseSession(vals map[string]string) (SessionSettings, error) {
	s := DefaultSessionSettings()
	var err error

	if s.BuyGachaPacks, err = mapBool(vals, "BUY_GACHA_PACKS", s.BuyGachaPacks); err != nil {
		return s, err
	}
	if s.SpendGachas, err = mapBool(vals, "SPEND_GACHAS", s.SpendGachas); err != nil {
		return s, err
	}
	if s.GemsSafeBalance, err = mapInt64(vals, "GEMS_SAFE_BALANCE", s.GemsSafeBalance); err != nil {
		return s, err
	}
	if s.GemsSafeBalance < 0 {
		return s, &Error{Key: "GEMS_SAFE_BALANCE", Reason: "must not be negative"}
	}
	if s.ProcessMissions, err = mapBool(vals, "PROCESS_MISSIONS", s.ProcessMissions); err != nil {
		return s, err
	}
	if s.UpgradeCards, err = mapBool(vals, "UPGRADE_CARDS", s.UpgradeCards); err != nil {
		return s, err
	}

	if s.FarmGreenStones, err = mapBool(vals, "FARM_GREEN_STONES", s.FarmGreenStones); err != nil {
		return s, err
	}
	if s.FarmPurpleStones, err = mapBool(vals, "FARM_PURPLE_STONES", s.FarmPurpleStones); err != nil {
		return s, err
	}
	if s.FarmGold, err = mapBool(vals, "FARM_GOLD", s.FarmGold); err != nil {
		return s, err
	}
	if s.FarmGacha, err = mapBool(vals, "FARM_GACHA", s.FarmGacha); err != nil {
		return s, err
	}
	if s.FarmPoints, err = mapBool(vals, "FARM_POINTS", s.FarmPoints); err != nil {
		return s, err
	}

	if raw, ok := vals["CONSTELLATION_LAST_INDEX"]; ok && raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			return s, &Error{Key: "CONSTELLATION_LAST_INDEX", Reason: "not a valid index: " + raw}
		}
		s.ConstellationLastIndex = &index
	}
	if s.ConstellationAutoAdvance, err = mapBool(vals, "CONSTELLATION_AUTO_ADVANCE", s.ConstellationAutoAdvance); err != nil {
		return s, err
	}

	for _, pk := range priorityKeys {
		if s.BonkPriorities[pk.Res], err = mapInt(vals, "BONK_PRIORITY_"+pk.Suffix, s.BonkPriorities[pk.Res]); err != nil {
			return s, err
		}
		if s.DragonPriorities[pk.Res], err = mapInt(vals, "DRAGON_PRIORITY_"+pk.Suffix, s.DragonPriorities[pk.Res]); err != nil {
			return s, err
		}
	}
	if err := s.BonkPriorities.validate("BONK_PRIORITY"); err != nil {
		return s, err
	}
	if err := s.DragonPriorities.validate("DRAGON_PRIORITY"); err != nil {
		return s, err
	}

	return s, nil
}

// Save writes the settings back to the session's .env file.
func (s SessionSettings) Save(path string) error {
	return godotenv.Write(s.EnvMap(), path)
}

// EnvMap renders the settings as the key/value pairs LoadSession accepts.
func (s SessionSettings) EnvMap() map[string]string {
	vals := map[string]string{
		"BUY_GACHA_PACKS":            strconv.FormatBool(s.BuyGachaPacks),
		"SPEND_GACHAS":               strconv.FormatBool(s.SpendGachas),
		"GEMS_SAFE_BALANCE":          strconv.FormatInt(s.GemsSafeBalance, 10),
		"PROCESS_MISSIONS":           strconv.FormatBool(s.ProcessMissions),
		"UPGRADE_CARDS":              strconv.FormatBool(s.UpgradeCards),
		"FARM_GREEN_STONES":          strconv.FormatBool(s.FarmGreenStones),
		"FARM_PURPLE_STONES":         strconv.FormatBool(s.FarmPurpleStones),
		"FARM_GOLD":                  strconv.FormatBool(s.FarmGold),
		"FARM_GACHA":                 strconv.FormatBool(s.FarmGacha),
		"FARM_POINTS":                strconv.FormatBool(s.FarmPoints),
		"CONSTELLATION_AUTO_ADVANCE": strconv.FormatBool(s.ConstellationAutoAdvance),
	}
	if s.ConstellationLastIndex != nil {
		vals["CONSTELLATION_LAST_INDEX"] = strconv.Itoa(*s.ConstellationLastIndex)
	}
	for _, pk := range priorityKeys {
		vals["BONK_PRIORITY_"+pk.Suffix] = strconv.Itoa(s.BonkPriorities[pk.Res])
		vals["DRAGON_PRIORITY_"+pk.Suffix] = strconv.Itoa(s.DragonPriorities[pk.Res])
	}
	return vals
}

// FarmEnabled reports whether farming the resource is switched on.
func (s SessionSettings) FarmEnabled(r game.Resource) bool {
	switch r {
	case game.ResourceGreenStones:
		return s.FarmGreenStones
	case game.ResourcePurpleStones:
		return s.FarmPurpleStones
	case game.ResourceGold:
		return s.FarmGold
	case game.ResourceGacha:
		return s.FarmGacha
	case game.ResourcePoints:
		return s.FarmPoints
	}
	return false
}

// FarmingEnabled reports whether any resource is being farmed at all.
func (s SessionSettings) FarmingEnabled() bool {
	for _, r := range game.ResourceOrder {
		if s.FarmEnabled(r) {
			return true
		}
	}
	return false
}

// HeroPriorities returns the resource ranking for the hero.
func (s SessionSettings) HeroPriorities(h game.Hero) Priorities {
	if h == game.HeroDragon {
		return s.DragonPriorities
	}
	return s.BonkPriorities
}

func mapBool(vals map[string]string, key string, def bool) (bool, error) {
	raw, ok := vals[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &Error{Key: key, Reason: "not a boolean: " + raw}
	}
	return v, nil
}

func mapInt(vals map[string]string, key string, def int) (int, error) {
	raw, ok := vals[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not an integer: " + raw}
	}
	return v, nil
}

func mapInt64(vals map[string]string, key string, def int64) (int64, error) {
	raw, ok := vals[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not an integer: " + raw}
	}
	return v, nil
}
