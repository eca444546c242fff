package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	browser "github.com/itzngga/fake-useragent"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sleepchann/config"
	"sleepchann/constant"
	"sleepchann/game"
	"sleepchann/logging"
	"sleepchann/proxy"
	"sleepchann/reporter"
	"sleepchann/runner"
	"sleepchann/store"
	"sleepchann/tgauth"
	"sleepchann/updater"
)

const (
	actionRun = iota + 1
	actionCreateSession
	actionShowSettings
	actionEditSettings
	actionRemoveSession
	actionExit
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleHint   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleItem   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	styleDanger = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

type app struct {
	settings *config.Settings
	store    *store.Store
	logger   *zap.Logger
	in       *bufio.Reader
}

func main() {
	action := flag.Int("a", 0, "action to run without showing the menu")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(settings.DebugLogging)

	st, err := store.New(constant.SessionsDir, logger)
	if err != nil {
		logger.Fatal("Cannot open sessions directory", zap.Error(err))
	}

	a := &app{
		settings: settings,
		store:    st,
		logger:   logger,
		in:       bufio.NewReader(os.Stdin),
	}

	if *action != 0 {
		if err := a.run(*action); err != nil {
			logger.Fatal("Action failed", zap.Error(err))
		}
		return
	}

	for {
		a.banner()
		fmt.Println(menu())

		choice, err := a.promptInt("> ", 1, actionExit)
		if err != nil {
			logger.Fatal("Cannot read input", zap.Error(err))
		}
		if choice == actionExit {
			fmt.Println(styleHint.Render("👋 Goodbye!"))
			return
		}
		if err := a.run(choice); err != nil {
			logger.Error("Action failed", zap.Error(err))
		}
	}
}

func menu() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styleTitle.Render("🎮 Sleepagotchi LITE Bot"),
		styleHint.Render("Automated constellation resource farming using bonk and dragon cards"),
		"",
		styleItem.Render("  1. Launch clicker"),
		styleItem.Render("  2. Create session"),
		styleItem.Render("  3. Show session settings"),
		styleItem.Render("  4. Edit session settings"),
		styleDanger.Render("  5. Remove session"),
		styleHint.Render("  6. Exit"),
	)
}

func (a *app) banner() {
	sessions, err := a.store.Sessions()
	if err != nil {
		a.logger.Warn("Cannot list sessions", zap.Error(err))
	}

	if !a.settings.UseProxy {
		a.logger.Info("Detected sessions", zap.Int("sessions", len(sessions)), zap.Bool("use_proxy", false))
		return
	}
	proxies, _ := proxy.ReadFile(constant.ProxyFile, a.logger)
	a.logger.Info("Detected sessions", zap.Int("sessions", len(sessions)), zap.Int("proxies", len(proxies)))
}

func (a *app) run(choice int) error {
	switch choice {
	case actionRun:
		return a.launch()
	case actionCreateSession:
		return a.createSession()
	case actionShowSettings:
		return a.showSettings()
	case actionEditSettings:
		return a.editSettings()
	case actionRemoveSession:
		return a.removeSession()
	case actionExit:
		return nil
	default:
		return fmt.Errorf("unknown action %d", choice)
	}
}

// launch starts every non-blacklisted session plus the report bot and the
// release checker, then blocks until SIGINT/SIGTERM.
func (a *app) launch() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := a.store.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		a.logger.Warn("No sessions found, create one first")
		return nil
	}

	var pool *proxy.Pool
	if a.settings.UseProxy {
		proxies, err := proxy.ReadFile(constant.ProxyFile, a.logger)
		if err != nil {
			return err
		}
		pool = proxy.NewPool(proxies, a.settings.SessionsPerProxy, a.logger)

		accounts, err := a.store.Accounts()
		if err != nil {
			return err
		}
		for name, acc := range accounts {
			if acc.Proxy != "" {
				pool.Bind(name, acc.Proxy)
			}
		}
	}

	stats := runner.NewCollector()

	rep, err := reporter.New(a.settings.BotToken, a.settings.AdminChatID, stats, a.logger.Named("reporter"))
	if err != nil {
		return err
	}

	if a.settings.AutoUpdate {
		check := updater.New(a.settings.CheckUpdateInterval, a.logger.Named("updater"), rep.Notify)
		if err := check.Start(ctx); err != nil {
			a.logger.Warn("Release checks disabled", zap.Error(err))
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	var started int
	for _, name := range sessions {
		if a.settings.Blacklisted(name) {
			a.logger.Warn("Session is blacklisted, skipping", zap.String("account", name))
			continue
		}

		r, err := a.buildRunner(name, pool, stats, rep)
		if err != nil {
			a.logger.Error("Cannot prepare session", zap.String("account", name), zap.Error(err))
			continue
		}

		started++
		g.Go(func() error { return r.Run(ctx) })
	}

	if started == 0 {
		a.logger.Warn("No valid sessions found, add sessions first")
		return nil
	}
	a.logger.Info("Farming started", zap.Int("accounts", started))

	if rep != nil {
		g.Go(func() error {
			rep.Start(ctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("Stopped")
	return nil
}

func (a *app) buildRunner(name string, pool *proxy.Pool, stats *runner.Collector, rep *reporter.Reporter) (*runner.Runner, error) {
	acc, found, err := a.store.Account(name)
	if err != nil {
		return nil, err
	}
	if !found {
		acc = store.Account{}
	}
	if acc.UserAgent == "" {
		acc.UserAgent = browser.Chrome()
	}
	if acc.API.APIID == 0 {
		acc.API.APIID = a.settings.APIID
		acc.API.APIHash = a.settings.APIHash
	}
	if err := a.store.SaveAccount(name, acc); err != nil {
		return nil, err
	}

	refID := tgauth.PickRefID(a.settings.RefID)

	mint := func(ctx context.Context, proxyURL string) (string, error) {
		return tgauth.InitData(ctx, a.tgOptions(name, acc, proxyURL), refID)
	}
	build := func(initData, proxyURL string) (runner.Client, error) {
		return game.NewClient(game.Options{
			Session:   name,
			InitData:  initData,
			UserAgent: acc.UserAgent,
			Proxy:     proxyURL,
			Insecure:  a.settings.FixCert,
			Retry: game.RetryPolicy{
				Attempts: a.settings.RequestRetries,
				MinDelay: time.Second,
				MaxDelay: 3 * time.Second,
			},
			Logger: a.logger,
		})
	}

	return runner.New(runner.Options{
		Name:      name,
		Settings:  a.settings,
		Store:     a.store,
		Proxies:   pool,
		Stats:     stats,
		Logger:    a.logger,
		InitData:  mint,
		NewClient: build,
		Notify:    rep.Notify,
	})
}

func (a *app) tgOptions(name string, acc store.Account, proxyURL string) tgauth.Options {
	opts := tgauth.Options{
		SessionPath: a.store.SessionPath(name),
		APIID:       a.settings.APIID,
		APIHash:     a.settings.APIHash,
		Proxy:       proxyURL,
		Logger:      a.logger,
	}
	if acc.API.APIID != 0 {
		opts.APIID = acc.API.APIID
		opts.APIHash = acc.API.APIHash
	}
	if a.settings.DeviceParams {
		opts.Device = acc.API
		opts.UseDevice = true
	}
	return opts
}

func (a *app) createSession() error {
	name, err := a.prompt("Session name: ")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("session name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.New("session name cannot contain path separators")
	}

	phone, err := a.prompt("Phone number (with country code): ")
	if err != nil {
		return err
	}

	acc := store.Account{
		API: store.DeviceInfo{
			APIID:   a.settings.APIID,
			APIHash: a.settings.APIHash,
		},
		UserAgent: browser.Chrome(),
	}

	var proxyURL string
	if a.settings.UseProxy {
		if proxies, err := proxy.ReadFile(constant.ProxyFile, a.logger); err == nil && len(proxies) > 0 {
			pool := proxy.NewPool(proxies, a.settings.SessionsPerProxy, a.logger)
			accounts, _ := a.store.Accounts()
			for other, entry := range accounts {
				if entry.Proxy != "" {
					pool.Bind(other, entry.Proxy)
				}
			}
			if assigned, err := pool.Assign(name); err == nil {
				proxyURL = assigned
				acc.Proxy = assigned
			} else {
				a.logger.Warn("No free proxy for the new session", zap.Error(err))
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	user, err := tgauth.Login(ctx, a.tgOptions(name, acc, proxyURL), phone, a.in, os.Stdout)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := a.store.SaveAccount(name, acc); err != nil {
		return err
	}
	if err := config.DefaultSessionSettings().Save(a.store.SettingsPath(name)); err != nil {
		return err
	}

	a.logger.Info("Session created",
		zap.String("account", name),
		zap.String("username", user.Username),
		zap.Int64("id", user.ID))
	return nil
}

func (a *app) showSettings() error {
	name, err := a.pickSession("Select session to inspect")
	if err != nil || name == "" {
		return err
	}

	cfg, err := a.store.LoadSettings(name)
	if err != nil {
		return err
	}

	vals := cfg.EnvMap()
	lines := []string{styleTitle.Render(name)}
	for _, k := range sortedKeys(vals) {
		lines = append(lines, styleItem.Render(fmt.Sprintf("  %s=%s", k, vals[k])))
	}
	fmt.Println(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return nil
}

func (a *app) editSettings() error {
	name, err := a.pickSession("Select session to edit")
	if err != nil || name == "" {
		return err
	}

	cfg, err := a.store.LoadSettings(name)
	if err != nil {
		return err
	}

	vals := cfg.EnvMap()
	fmt.Println(styleHint.Render("Press enter to keep the current value."))
	for _, k := range sortedKeys(vals) {
		entered, err := a.prompt(fmt.Sprintf("%s [%s]: ", k, vals[k]))
		if err != nil {
			return err
		}
		if entered != "" {
			vals[k] = entered
		}
	}

	updated, err := config.ParseSession(vals)
	if err != nil {
		return err
	}
	if err := a.store.SaveSettings(name, updated); err != nil {
		return err
	}
	a.logger.Info("Settings saved", zap.String("account", name))
	return nil
}

func (a *app) removeSession() error {
	name, err := a.pickSession("Select session to remove")
	if err != nil || name == "" {
		return err
	}

	fmt.Println(styleDanger.Render(fmt.Sprintf("⚠️  This permanently deletes session %q, its settings and its registry entry.", name)))
	confirm, err := a.prompt("Type 'DELETE' to confirm removal: ")
	if err != nil {
		return err
	}
	if confirm != "DELETE" {
		a.logger.Info("Operation cancelled")
		return nil
	}

	if err := a.store.Delete(name); err != nil {
		return err
	}
	a.logger.Info("Session removed", zap.String("account", name))
	return nil
}

func (a *app) pickSession(title string) (string, error) {
	sessions, err := a.store.Sessions()
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		a.logger.Info("No sessions found")
		return "", nil
	}

	lines := []string{styleTitle.Render(title)}
	for i, name := range sessions {
		lines = append(lines, styleItem.Render(fmt.Sprintf("  %d. %s", i+1, name)))
	}
	lines = append(lines, styleHint.Render("  0. Cancel"))
	fmt.Println(lipgloss.JoinVertical(lipgloss.Left, lines...))

	choice, err := a.promptInt("> ", 0, len(sessions))
	if err != nil {
		return "", err
	}
	if choice == 0 {
		return "", nil
	}
	return sessions[choice-1], nil
}

func (a *app) prompt(msg string) (string, error) {
	fmt.Print(msg)
	line, err := a.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) promptInt(msg string, min, max int) (int, error) {
	for {
		raw, err := a.prompt(msg)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < min || n > max {
			fmt.Println(styleHint.Render(fmt.Sprintf("Please enter a number between %d and %d", min, max)))
			continue
		}
		return n, nil
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
