package constant

import (
	"time"
)

const (
	// Game backend. Every call carries the Telegram web-app init data as
	// query parameters, see game.Client.
	APIBaseURL = "https://telegram-api.sleepagotchi.com"
	APIPrefix  = "/v1/tg"

	// Endpoints under APIPrefix.
	EndpointGetUserData            = "/getUserData"
	EndpointGetConstellations      = "/getConstellations"
	EndpointSendToChallenge        = "/sendToChallenge"
	EndpointClaimChallengesRewards = "/claimChallengesRewards"
	EndpointGetDailyRewards        = "/getDailyRewards"
	EndpointClaimDailyRewards      = "/claimDailyRewards"
	EndpointLevelUpHero            = "/levelUpHero"
	EndpointStarUpHero             = "/starUpHero"
	EndpointGetShop                = "/getShop"
	EndpointBuyShop                = "/buyShop"
	EndpointSpendGacha             = "/spendGacha"
	EndpointUseRedeemCode          = "/useRedeemCode"
	EndpointGetReferralsInfo       = "/getReferralsInfo"
	EndpointClaimReferralRewards   = "/claimReferralRewards"
	EndpointGetMissions            = "/getMissions"
	EndpointReportMissionEvent     = "/reportMissionEvent"
	EndpointClaimMission           = "/claimMission"

	// Web app entry used to mint init data.
	GameBotUsername  = "sleepagotchiLITE_bot"
	GameAppShortName = "game"
	GameAppShortURL  = "https://t.me/sleepagotchiLITE_bot/game"
	WebAppOrigin     = "https://tgcf.sleepagotchi.com"

	RequestTimeout = 60 * time.Second

	// Proxy health probe.
	ProxyCheckURL     = "https://api.ipify.org"
	ProxyCheckTimeout = 15 * time.Second

	// Pagination size for getConstellations.
	ConstellationPageSize = 10

	DefaultRefID       = "72633a323238363138373939"
	FirstRunRedeemCode = "013738"

	// Fallback gacha pack price when getUserData carries no costs block.
	DefaultGachaGemCost = 500

	// spendGacha strategies: the free daily roll, collected gacha tokens,
	// and gem purchases. Gem purchases go in bulk lots of up to ten.
	GachaStrategyFree  = "free"
	GachaStrategyToken = "gacha"
	GachaStrategyGem   = "gem"
	GachaBulkSize      = 10

	// Shop slot type whose rewards are claimable for free on a timer.
	ShopSlotFree = "free"

	SessionsDir       = "sessions"
	ProxyFile         = "proxy.txt"
	SessionFileSuffix = ".session.json"
	SessionEnvSuffix  = ".env"

	UpdateReleaseURL = "https://api.github.com/repos/StephanieAgatha/sleepchann/releases/latest"
	Version          = "1.3.0"
)

// SlotEmpty is the backend's occupancy sentinel for a free challenge slot.
const SlotEmpty = "empty"
