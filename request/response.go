package request

type ErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type Amount struct {
	Amount int64 `json:"amount"`
}

type HeroCard struct {
	HeroType string `json:"heroType"`
	Amount   int64  `json:"amount"`
}

type Resources struct {
	Gem          Amount     `json:"gem"`
	Gold         Amount     `json:"gold"`
	GreenStones  Amount     `json:"greenStones"`
	PurpleStones Amount     `json:"purpleStones"`
	Gacha        Amount     `json:"gacha"`
	Points       Amount     `json:"points"`
	HeroCard     []HeroCard `json:"heroCard"`
}

type PlayerMeta struct {
	IsNextDailyRewardAvailable bool  `json:"isNextDailyRewardAvailable"`
	NextDailyRewardAt          int64 `json:"nextDailyRewardAt"`
	FreeGachaNextClaim         int64 `json:"freeGachaNextClaim"`
	NextChallengeClaimDate     int64 `json:"nextChallengeClaimDate"`
	ConstellationsLastIndex    int   `json:"constellationsLastIndex"`
}

type Hero struct {
	HeroType       string `json:"heroType"`
	Name           string `json:"name"`
	Class          string `json:"class"`
	Level          int    `json:"level"`
	Stars          int    `json:"stars"`
	Power          int64  `json:"power"`
	UnlockAt       int64  `json:"unlockAt"`
	CostLevelGold  int64  `json:"costLevelGold"`
	CostLevelGreen int64  `json:"costLevelGreen"`
	CostLevelGem   int64  `json:"costLevelGem"`
	CostStar       int64  `json:"costStar"`
}

type PlayerCosts struct {
	GachaGemCost int64 `json:"gachaGemCost"`
}

type Player struct {
	Meta      PlayerMeta  `json:"meta"`
	Resources Resources   `json:"resources"`
	Heroes    []Hero      `json:"heroes"`
	Costs     PlayerCosts `json:"costs"`
}

type UserDataResponse struct {
	Player Player `json:"player"`
}

type ChallengeSlot struct {
	HeroClass  string `json:"heroClass"`
	Unlocked   bool   `json:"unlocked"`
	OccupiedBy string `json:"occupiedBy"`
	UnlockAt   int64  `json:"unlockAt"`
}

type Challenge struct {
	Name          string          `json:"name"`
	ChallengeType string          `json:"challengeType"`
	ResourceType  string          `json:"resourceType"`
	Value         int64           `json:"value"`
	Received      int64           `json:"received"`
	UnlockAt      int64           `json:"unlockAt"`
	MinLevel      int             `json:"minLevel"`
	MinStars      int             `json:"minStars"`
	Power         int64           `json:"power"`
	HeroSkill     string          `json:"heroSkill"`
	Time          int64           `json:"time"`
	OrderedSlots  []ChallengeSlot `json:"orderedSlots"`
}

type Constellation struct {
	Name       string      `json:"name"`
	Challenges []Challenge `json:"challenges"`
}

type ConstellationsResponse struct {
	Constellations []Constellation `json:"constellations"`
}

type Reward struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	ResourceType string `json:"resourceType"`
	Amount       int64  `json:"amount"`
}

type RewardsResponse struct {
	Status  string   `json:"status"`
	Rewards []Reward `json:"rewards"`
}

// RedeemResponse rewards are keyed by resource type rather than listed.
type RedeemResponse struct {
	Rewards map[string]Amount `json:"rewards"`
}

type ShopSlot struct {
	SlotType    string   `json:"slotType"`
	NextClaimAt int64    `json:"nextClaimAt"`
	Content     []Reward `json:"content"`
}

type ShopResponse struct {
	Shop []ShopSlot `json:"shop"`
}

type Mission struct {
	MissionKey string   `json:"missionKey"`
	Claimed    bool     `json:"claimed"`
	Progress   int64    `json:"progress"`
	Condition  int64    `json:"condition"`
	Available  bool     `json:"available"`
	Rewards    []Reward `json:"rewards"`
}

type MissionsResponse struct {
	Missions []Mission `json:"missions"`
}

type ReferralsInfoResponse struct {
	ClaimAvailible bool `json:"claimAvailible"`
}

type ReferralRewardsResponse map[string]Amount
