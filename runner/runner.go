// Package runner drives one account end to end: Telegram authorization, the
// select/execute farming loop, proxy health and the sleep schedule between
// cycles.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"sleepchann/config"
	"sleepchann/constant"
	"sleepchann/game"
	"sleepchann/policy"
	"sleepchann/proxy"
	"sleepchann/request"
	"sleepchann/store"
)

// Phase is where a runner is in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAuthenticated
	PhaseCycling
	PhaseSleeping
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseCycling:
		return "cycling"
	case PhaseSleeping:
		return "sleeping"
	case PhaseStopped:
		return "stopped"
	}
	return "idle"
}

const (
	noProxyWait        = 5 * time.Minute
	maintenanceWaitMin = 5 * time.Minute
	maintenanceWaitMax = 10 * time.Minute
	errorWaitMin       = 1 * time.Minute
	errorWaitMax       = 2 * time.Minute

	// maxCycleActions bounds one pass when the backend keeps minting new
	// work, e.g. a long chain of gacha tokens.
	maxCycleActions = 64
)

// Client is the slice of the game API a runner drives. *game.Client
// implements it; tests substitute a scripted fake.
type Client interface {
	FetchState(ctx context.Context, opts game.FetchOptions) (*game.State, error)
	ClaimDailyRewards(ctx context.Context) error
	ClaimChallengesRewards(ctx context.Context) (*request.RewardsResponse, error)
	ReportMissionEvent(ctx context.Context, missionKey string) error
	ClaimMission(ctx context.Context, missionKey string) error
	SpendGacha(ctx context.Context, amount int, strategy string) (*request.RewardsResponse, error)
	LevelUpHero(ctx context.Context, heroType string) error
	StarUpHero(ctx context.Context, heroType string) error
	SendToChallenge(ctx context.Context, challengeType string, heroes []request.ChallengeHero) error
	GetShop(ctx context.Context) (*request.ShopResponse, error)
	BuyShop(ctx context.Context, slotType string) error
	GetReferralsInfo(ctx context.Context) (*request.ReferralsInfoResponse, error)
	ClaimReferralRewards(ctx context.Context) (request.ReferralRewardsResponse, error)
	UseRedeemCode(ctx context.Context, code string) (*request.RedeemResponse, error)
}

// Options wires one runner. InitData and NewClient keep the Telegram and
// HTTP boundaries injectable.
type Options struct {
	Name     string
	Settings *config.Settings
	Store    *store.Store
	Proxies  *proxy.Pool
	Stats    *Collector
	Logger   *zap.Logger

	// InitData mints fresh web-app init data, dialing through proxyURL.
	InitData func(ctx context.Context, proxyURL string) (string, error)
	// NewClient builds the game API client around minted init data.
	NewClient func(initData, proxyURL string) (Client, error)
	// Notify forwards fatal session messages to the report bot.
	Notify func(text string)

	// Sleep replaces real sleeping in tests.
	Sleep game.SleepFunc
}

// Runner owns one account's loop. Not safe for concurrent use; main starts
// exactly one goroutine per runner.
type Runner struct {
	name     string
	settings *config.Settings
	store    *store.Store
	proxies  *proxy.Pool
	stats    *Collector
	log      *zap.Logger

	mintInitData func(ctx context.Context, proxyURL string) (string, error)
	buildClient  func(initData, proxyURL string) (Client, error)
	notify       func(string)
	sleep        game.SleepFunc

	client   Client
	initData string
	proxyURL string
	firstRun bool
}

func New(opts Options) (*Runner, error) {
	if opts.Name == "" {
		return nil, errors.New("runner: session name is required")
	}
	if opts.Settings == nil {
		return nil, errors.New("runner: settings are required")
	}
	if opts.Store == nil {
		return nil, errors.New("runner: store is required")
	}
	if opts.InitData == nil || opts.NewClient == nil {
		return nil, errors.New("runner: InitData and NewClient are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = game.Sleep
	}

	return &Runner{
		name:         opts.Name,
		settings:     opts.Settings,
		store:        opts.Store,
		proxies:      opts.Proxies,
		stats:        opts.Stats,
		log:          logger.With(zap.String("account", opts.Name)),
		mintInitData: opts.InitData,
		buildClient:  opts.NewClient,
		notify:       opts.Notify,
		sleep:        sleep,
	}, nil
}

// Run drives the account until the context is canceled or the session hits a
// fatal authorization failure. Per-account failures are logged and reported,
// never propagated, so one account cannot tear down the fleet.
func (r *Runner) Run(ctx context.Context) error {
	defer r.setPhase(PhaseStopped)
	r.setPhase(PhaseIdle)

	r.firstRun = r.store.IsFirstRun(r.name)
	if r.firstRun {
		r.log.Info("Detected first session run")
		if err := r.store.MarkRecurring(r.name); err != nil {
			r.log.Warn("Could not record the session as recurring", zap.Error(err))
		}
	}

	delay := uniformDuration(time.Second, r.settings.SessionStartDelay)
	r.log.Info("Bot will start soon", zap.Duration("delay", delay.Round(time.Second)))
	if err := r.sleep(ctx, delay); err != nil {
		return err
	}

	if r.settings.UseProxy && r.proxies != nil {
		proxyURL, err := r.proxies.Assign(r.name)
		if err != nil {
			r.fatal("No proxy could be assigned", err)
			return nil
		}
		r.proxyURL = proxyURL
		r.stats.SetProxy(r.name, proxyURL)
	}

	if err := r.authenticate(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.fatal("Telegram authorization failed", err)
		return nil
	}
	r.setPhase(PhaseAuthenticated)

	var networkRetried bool
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !r.ensureProxy(ctx) {
			r.log.Warn("Could not find a working proxy, waiting",
				zap.Duration("wait", noProxyWait))
			if err := r.sleep(ctx, noProxyWait); err != nil {
				return err
			}
			continue
		}

		st, err := r.cycle(ctx)
		switch {
		case err == nil:
			networkRetried = false
			d := r.sleepDuration(st)
			r.stats.CycleDone(r.name, st, time.Now().Add(d))
			r.log.Info("Cycle finished, sleeping",
				zap.Duration("for", d.Round(time.Second)),
				zap.String("until", time.Now().Add(d).Format("15:04:05")))
			r.setPhase(PhaseSleeping)
			if err := r.sleep(ctx, d); err != nil {
				return err
			}

		case ctx.Err() != nil:
			return ctx.Err()

		case game.IsAuth(err):
			r.fatal("Session is no longer authorized", err)
			return nil

		case game.IsMaintenance(err):
			d := uniformDuration(maintenanceWaitMin, maintenanceWaitMax)
			r.log.Warn("Server is in maintenance mode",
				zap.Duration("wait", d.Round(time.Second)))
			if err := r.sleep(ctx, d); err != nil {
				return err
			}

		case game.IsNetwork(err) && !networkRetried:
			// Retry once right away; ensureProxy on the next iteration
			// swaps a dead proxy first.
			networkRetried = true
			r.fail(err)
			r.log.Warn("Cycle failed on the network, retrying once", zap.Error(err))

		case game.IsNetwork(err):
			networkRetried = false
			r.fail(err)
			d := r.settings.SleepTime.Random()
			r.log.Error("Cycle failed on the network again, sleeping",
				zap.Error(err),
				zap.Duration("for", d.Round(time.Second)))
			r.setPhase(PhaseSleeping)
			if err := r.sleep(ctx, d); err != nil {
				return err
			}

		default:
			r.fail(err)
			d := uniformDuration(errorWaitMin, errorWaitMax)
			r.log.Error("Unknown error",
				zap.Error(err),
				zap.Duration("wait", d.Round(time.Second)))
			if err := r.sleep(ctx, d); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) authenticate(ctx context.Context) error {
	initData, err := r.mintInitData(ctx, r.proxyURL)
	if err != nil {
		return err
	}
	client, err := r.buildClient(initData, r.proxyURL)
	if err != nil {
		return err
	}
	r.initData = initData
	r.client = client
	r.log.Info("Obtained web app init data")
	return nil
}

// cycle runs one full pass: supplemental claims, then Select/execute against
// refreshed state until the policy returns NoOp.
func (r *Runner) cycle(ctx context.Context) (*game.State, error) {
	r.setPhase(PhaseCycling)
	r.log.Info("Cycle started")

	cfg, err := r.store.LoadSettings(r.name)
	if err != nil {
		return nil, err
	}

	if r.firstRun {
		r.redeemWelcomeCode(ctx)
		r.firstRun = false
	}

	if cfg.FarmingEnabled() {
		if err := r.stage(ctx, "referral rewards", r.collectReferrals); err != nil {
			return nil, err
		}
		if err := r.stage(ctx, "shop rewards", r.collectShop); err != nil {
			return nil, err
		}
	}

	st, err := r.fetchState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.UpgradeCards {
		r.starUpHeroes(ctx, st)
	}

	var lastFailed policy.Action
	for executed := 0; executed < maxCycleActions; executed++ {
		action := policy.Select(st, cfg)
		if action == policy.NoOp {
			break
		}
		if action == lastFailed {
			r.log.Debug("Same decision failed already, ending the pass",
				zap.String("action", action.Kind.String()))
			break
		}

		if err := r.sleep(ctx, r.settings.ActionDelay.Random()); err != nil {
			return nil, err
		}

		switch err := r.execute(ctx, st, cfg, action); {
		case err == nil:
			r.stats.ActionDone(r.name, action.Kind.String())
			lastFailed = policy.NoOp
		case game.IsGameLogic(err):
			if game.IsSilent(err) {
				r.log.Debug("Action refused",
					zap.String("action", action.Kind.String()),
					zap.Error(err))
			} else {
				r.log.Warn("Action refused",
					zap.String("action", action.Kind.String()),
					zap.Error(err))
			}
			lastFailed = action
		default:
			return nil, err
		}

		if st, err = r.fetchState(ctx, cfg); err != nil {
			return nil, err
		}
	}

	r.advanceConstellation(st, cfg)
	return st, nil
}

// stage runs one supplemental step with the usual action delay in front.
// Game-logic refusals are routine and do not abort the cycle.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := r.sleep(ctx, r.settings.ActionDelay.Random()); err != nil {
		return err
	}
	err := fn(ctx)
	if err != nil && game.IsGameLogic(err) {
		r.log.Warn("Stage refused", zap.String("stage", name), zap.Error(err))
		return nil
	}
	return err
}

func (r *Runner) collectReferrals(ctx context.Context) error {
	info, err := r.client.GetReferralsInfo(ctx)
	if err != nil {
		return err
	}
	if !info.ClaimAvailible {
		return nil
	}
	rewards, err := r.client.ClaimReferralRewards(ctx)
	if err != nil {
		return err
	}
	for resource, amount := range rewards {
		r.log.Info("Referral reward",
			zap.String("resource", resource),
			zap.Int64("amount", amount.Amount))
	}
	return nil
}

func (r *Runner) collectShop(ctx context.Context) error {
	shop, err := r.client.GetShop(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	for _, slot := range shop.Shop {
		if slot.SlotType != constant.ShopSlotFree || slot.NextClaimAt > now {
			continue
		}
		if err := r.client.BuyShop(ctx, constant.ShopSlotFree); err != nil {
			if game.IsGameLogic(err) {
				r.log.Warn("Free shop slot refused", zap.Error(err))
				continue
			}
			return err
		}
		r.log.Info("Collected the free shop slot")
	}
	return nil
}

// starUpHeroes spends collected cards on star upgrades for the farming
// heroes. Refusals here are routine, the card may sit in a running
// challenge, and never abort the cycle.
func (r *Runner) starUpHeroes(ctx context.Context, st *game.State) {
	for _, h := range game.HeroOrder {
		hero, ok := st.Heroes[h]
		if !ok || hero.CostStar <= 0 || st.HeroCards[string(h)] < hero.CostStar {
			continue
		}
		if err := r.client.StarUpHero(ctx, string(h)); err != nil {
			if game.IsSilent(err) {
				r.log.Debug("Star up refused", zap.String("hero", hero.Name), zap.Error(err))
			} else {
				r.log.Warn("Star up failed", zap.String("hero", hero.Name), zap.Error(err))
			}
			continue
		}
		r.log.Info("Hero starred up", zap.String("hero", hero.Name))
	}
}

func (r *Runner) redeemWelcomeCode(ctx context.Context) {
	res, err := r.client.UseRedeemCode(ctx, constant.FirstRunRedeemCode)
	if err != nil {
		r.log.Debug("Welcome code not redeemed", zap.Error(err))
		return
	}
	for resource, amount := range res.Rewards {
		r.log.Info("Welcome reward",
			zap.String("resource", resource),
			zap.Int64("amount", amount.Amount))
	}
}

func (r *Runner) fetchState(ctx context.Context, cfg config.SessionSettings) (*game.State, error) {
	return r.client.FetchState(ctx, game.FetchOptions{
		ConstellationIndex: cfg.ConstellationLastIndex,
		WithMissions:       cfg.ProcessMissions,
	})
}

// execute performs one decided action against the backend.
func (r *Runner) execute(ctx context.Context, st *game.State, cfg config.SessionSettings, a policy.Action) error {
	switch a.Kind {
	case policy.KindClaimDaily:
		if err := r.client.ClaimDailyRewards(ctx); err != nil {
			return err
		}
		r.log.Info("Daily reward claimed")

	case policy.KindClaimChallenges:
		rewards, err := r.client.ClaimChallengesRewards(ctx)
		if err != nil {
			return err
		}
		r.logRewards("Challenge rewards", rewards)

	case policy.KindClaimMission:
		if a.NeedsEvent {
			if err := r.client.ReportMissionEvent(ctx, a.MissionKey); err != nil {
				return err
			}
		}
		if err := r.client.ClaimMission(ctx, a.MissionKey); err != nil {
			return err
		}
		r.log.Info("Mission claimed", zap.String("mission", a.MissionKey))

	case policy.KindFreeGacha:
		rewards, err := r.client.SpendGacha(ctx, 1, constant.GachaStrategyFree)
		if err != nil {
			return err
		}
		r.logRewards("Free gacha", rewards)

	case policy.KindSpendGacha:
		rewards, err := r.client.SpendGacha(ctx, 1, constant.GachaStrategyToken)
		if err != nil {
			return err
		}
		r.logRewards("Gacha roll", rewards)

	case policy.KindBuyPack:
		packs := packsToBuy(st, cfg)
		rewards, err := r.client.SpendGacha(ctx, packs, constant.GachaStrategyGem)
		if err != nil {
			return err
		}
		r.log.Info("Bought gacha packs", zap.Int("count", packs))
		r.logRewards("Pack contents", rewards)

	case policy.KindLevelHero:
		if err := r.client.LevelUpHero(ctx, string(a.Hero)); err != nil {
			return err
		}
		r.log.Info("Hero leveled up", zap.String("hero", string(a.Hero)))

	case policy.KindStartChallenge:
		heroes := []request.ChallengeHero{{SlotID: a.SlotID, HeroType: string(a.Hero)}}
		if err := r.client.SendToChallenge(ctx, a.Challenge, heroes); err != nil {
			return err
		}
		r.log.Info("Hero sent to challenge",
			zap.String("hero", string(a.Hero)),
			zap.String("resource", string(a.Resource)),
			zap.Int("constellation", a.ConstellationIndex))
	}
	return nil
}

// packsToBuy sizes a gem purchase: as many packs as the balance allows above
// the safe floor, at most one bulk lot per action.
func packsToBuy(st *game.State, cfg config.SessionSettings) int {
	affordable := (st.Gems - cfg.GemsSafeBalance) / st.PackGemCost
	if affordable < 1 {
		return 1
	}
	if affordable > constant.GachaBulkSize {
		return constant.GachaBulkSize
	}
	return int(affordable)
}

func (r *Runner) logRewards(msg string, rewards *request.RewardsResponse) {
	if rewards == nil {
		return
	}
	for _, reward := range rewards.Rewards {
		r.log.Info(msg,
			zap.String("name", reward.Name),
			zap.String("type", reward.Type),
			zap.Int64("amount", reward.Amount))
	}
}

// advanceConstellation persists the next index once the active constellation
// is fully farmed. A manually pinned index stays put unless auto-advance is
// on.
func (r *Runner) advanceConstellation(st *game.State, cfg config.SessionSettings) {
	if st == nil || !st.Meta.ConstellationCleared {
		return
	}
	if cfg.ConstellationLastIndex != nil && !cfg.ConstellationAutoAdvance {
		return
	}
	next := st.Meta.ConstellationIndex + 1
	cfg.ConstellationLastIndex = &next
	if err := r.store.SaveSettings(r.name, cfg); err != nil {
		r.log.Warn("Could not persist the constellation index", zap.Error(err))
		return
	}
	r.log.Info("Constellation cleared, moving on", zap.Int("next", next))
}

// ensureProxy verifies the assigned proxy before a cycle, swapping in a
// fresh one when the current stops answering. False means no working proxy
// is available right now.
func (r *Runner) ensureProxy(ctx context.Context) bool {
	if !r.settings.UseProxy || r.proxies == nil {
		return true
	}
	if r.proxyURL != "" && proxy.Check(ctx, r.proxyURL, r.log) {
		return true
	}
	if r.settings.DisableProxyReplace {
		if r.proxyURL == "" {
			return false
		}
		r.log.Debug("Proxy check failed, replacement disabled")
		return true
	}

	for tries := r.proxies.Size(); tries > 0; tries-- {
		candidate, err := r.proxies.Replace(r.name)
		if err != nil {
			return false
		}
		if !proxy.Check(ctx, candidate, r.log) {
			continue
		}
		if err := r.switchProxy(candidate); err != nil {
			r.log.Error("Could not move to the new proxy", zap.Error(err))
			return false
		}
		return true
	}
	return false
}

func (r *Runner) switchProxy(proxyURL string) error {
	client, err := r.buildClient(r.initData, proxyURL)
	if err != nil {
		return err
	}
	r.client = client
	r.proxyURL = proxyURL
	r.stats.SetProxy(r.name, proxyURL)

	if acc, ok, err := r.store.Account(r.name); err == nil && ok {
		acc.Proxy = proxyURL
		if err := r.store.SaveAccount(r.name, acc); err != nil {
			r.log.Warn("Could not persist the proxy assignment", zap.Error(err))
		}
	}
	r.log.Info("Switched to new proxy", zap.String("proxy", proxyURL))
	return nil
}

// sleepDuration picks the pause until the next cycle: wait out the longest
// running challenge when one is in flight, otherwise draw from SleepTime.
func (r *Runner) sleepDuration(st *game.State) time.Duration {
	if st != nil && st.MaxChallengeTime > 0 {
		return st.MaxChallengeTime
	}
	return r.settings.SleepTime.Random()
}

// fatal marks the session dead for this process: logged, counted, pushed to
// the report bot when configured.
func (r *Runner) fatal(msg string, err error) {
	r.log.Error(msg, zap.Error(err))
	r.stats.Fail(r.name, err)
	if r.notify != nil {
		r.notify(fmt.Sprintf("%s | %s: %v", r.name, msg, err))
	}
}

func (r *Runner) fail(err error) {
	r.stats.Fail(r.name, err)
}

func (r *Runner) setPhase(p Phase) {
	r.stats.SetPhase(r.name, p)
	r.log.Debug("Phase changed", zap.Stringer("phase", p))
}

func uniformDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
