package request

type GetConstellationsRequest struct {
	StartIndex int `json:"startIndex"`
	Amount     int `json:"amount"`
}

type ChallengeHero struct {
	SlotID   int    `json:"slotId"`
	HeroType string `json:"heroType"`
}

type SendToChallengeRequest struct {
	ChallengeType string          `json:"challengeType"`
	Heroes        []ChallengeHero `json:"heroes"`
}

type SpendGachaRequest struct {
	Amount   int    `json:"amount"`
	Strategy string `json:"strategy"`
}

type LevelUpHeroRequest struct {
	HeroType string `json:"heroType"`
}

type StarUpHeroRequest struct {
	HeroType string `json:"heroType"`
}

type BuyShopRequest struct {
	SlotType string `json:"slotType"`
}

type UseRedeemCodeRequest struct {
	Code string `json:"code"`
}

type ReferralsInfoRequest struct {
	Page        int `json:"page"`
	RowsPerPage int `json:"rowsPerPage"`
}

type MissionRequest struct {
	MissionKey string `json:"missionKey"`
}
