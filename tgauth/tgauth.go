// Package tgauth drives the Telegram userbot side: session files, login,
// and minting fresh web-app init data for the game backend.
package tgauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	xproxy "golang.org/x/net/proxy"

	"sleepchann/constant"
	"sleepchann/store"
)

// ErrNotAuthorized means the session file exists but Telegram no longer
// accepts it. The account has to be logged in again.
var ErrNotAuthorized = errors.New("telegram session is not authorized")

// Options describes one account's Telegram identity.
type Options struct {
	SessionPath string
	APIID       int
	APIHash     string

	// Device is sent to Telegram on connect when UseDevice is set;
	// otherwise the library defaults apply.
	Device    store.DeviceInfo
	UseDevice bool

	// Proxy is the account's proxy URL. Only socks5 can carry the MTProto
	// connection; http proxies still cover the game HTTP client.
	Proxy string

	Logger *zap.Logger
}

func newClient(opts Options) (*telegram.Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tgOpts := telegram.Options{
		SessionStorage: &session.FileStorage{Path: opts.SessionPath},
		Logger:         logger.Named("td"),
		NoUpdates:      true,
	}
	if opts.UseDevice {
		tgOpts.Device = deviceConfig(opts.Device)
	}

	resolver, err := dialResolver(opts.Proxy, logger)
	if err != nil {
		return nil, err
	}
	if resolver != nil {
		tgOpts.Resolver = resolver
	}

	return telegram.NewClient(opts.APIID, opts.APIHash, tgOpts), nil
}

func deviceConfig(d store.DeviceInfo) telegram.DeviceConfig {
	return telegram.DeviceConfig{
		DeviceModel:    d.DeviceModel,
		SystemVersion:  d.SystemVersion,
		AppVersion:     d.AppVersion,
		SystemLangCode: d.SystemLangCode,
		LangPack:       d.LangPack,
		LangCode:       d.LangCode,
	}
}

// dialResolver builds a DC resolver tunneling through a socks5 proxy. Nil
// means a direct connection; http proxies only ever cover the game HTTP
// client, not MTProto.
func dialResolver(proxyURL string, logger *zap.Logger) (dcs.Resolver, error) {
	if proxyURL == "" {
		return nil, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	if u.Scheme != "socks5" {
		logger.Warn("Proxy cannot carry the Telegram connection, connecting directly",
			zap.String("scheme", u.Scheme))
		return nil, nil
	}

	dialer, err := xproxy.SOCKS5("tcp", u.Host, socksAuth(u), xproxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}
	contextDialer, ok := dialer.(xproxy.ContextDialer)
	if !ok {
		return nil, errors.New("socks5 dialer does not support context dialing")
	}
	return dcs.Plain(dcs.PlainOptions{Dial: contextDialer.DialContext}), nil
}

// InitData connects with the stored session, resolves the game bot and
// requests the mini-app web view, returning the init data the game backend
// authenticates with. The ref id rides along as the start parameter.
func InitData(ctx context.Context, opts Options, refID string) (string, error) {
	client, err := newClient(opts)
	if err != nil {
		return "", err
	}

	var initData string
	err = client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			return ErrNotAuthorized
		}

		api := client.API()
		bot, err := resolveBot(ctx, api, constant.GameBotUsername)
		if err != nil {
			return err
		}

		req := &tg.MessagesRequestAppWebViewRequest{
			Peer: &tg.InputPeerSelf{},
			App: &tg.InputBotAppShortName{
				BotID:     bot,
				ShortName: constant.GameAppShortName,
			},
			Platform:     "android",
			WriteAllowed: true,
		}
		if refID != "" {
			req.SetStartParam(refID)
		}

		result, err := api.MessagesRequestAppWebView(ctx, req)
		if err != nil {
			return fmt.Errorf("request web view: %w", err)
		}

		initData, err = ParseWebViewURL(result.URL)
		return err
	})
	return initData, err
}

func resolveBot(ctx context.Context, api *tg.Client, username string) (*tg.InputUser, error) {
	resolved, err := api.ContactsResolveUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", username, err)
	}
	for _, u := range resolved.Users {
		if user, ok := u.(*tg.User); ok && strings.EqualFold(user.Username, username) {
			return user.AsInput(), nil
		}
	}
	return nil, fmt.Errorf("no user %s in resolve result", username)
}

func socksAuth(u *url.URL) *xproxy.Auth {
	if u.User == nil {
		return nil
	}
	password, _ := u.User.Password()
	return &xproxy.Auth{
		User:     u.User.Username(),
		Password: password,
	}
}
