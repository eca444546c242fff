package game

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sleepchann/constant"
	"sleepchann/request"
)

// Options configures a Client for a single account session.
type Options struct {
	Session   string
	InitData  string
	UserAgent string
	Proxy     string
	BaseURL   string
	Insecure  bool
	Retry     RetryPolicy
	Logger    *zap.Logger
	Sleep     SleepFunc
}

// Client talks to the game backend on behalf of one account. The web-app init
// data is attached to every call as query parameters, which is how the backend
// authenticates requests.
type Client struct {
	http     *resty.Client
	initData url.Values
	retry    RetryPolicy
	sleep    SleepFunc
	logger   *zap.Logger
	session  string
}

func NewClient(opts Options) (*Client, error) {
	if opts.InitData == "" {
		return nil, errors.New("game: init data is required")
	}
	initData, err := url.ParseQuery(opts.InitData)
	if err != nil {
		return nil, fmt.Errorf("game: parse init data: %w", err)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = constant.APIBaseURL
	}

	httpClient := resty.New().
		SetBaseURL(baseURL + constant.APIPrefix).
		SetTimeout(constant.RequestTimeout).
		SetHeaders(map[string]string{
			"accept":             "*/*",
			"accept-language":    "en-US,en;q=0.9",
			"cache-control":      "no-cache",
			"content-type":       "application/json",
			"dnt":                "1",
			"origin":             constant.WebAppOrigin,
			"pragma":             "no-cache",
			"priority":           "u=1, i",
			"referer":            constant.WebAppOrigin + "/",
			"sec-ch-ua":          `"Chromium";v="130", "Google Chrome";v="130", "Not?A_Brand";v="99"`,
			"sec-ch-ua-mobile":   "?1",
			"sec-ch-ua-platform": `"Android"`,
			"sec-fetch-dest":     "empty",
			"sec-fetch-mode":     "cors",
			"sec-fetch-site":     "cross-site",
		})

	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Proxy != "" {
		httpClient.SetProxy(opts.Proxy)
	}
	if opts.Insecure {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	retry := opts.Retry
	if retry.Attempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:     httpClient,
		initData: initData,
		retry:    retry,
		sleep:    sleep,
		logger:   logger,
		session:  opts.Session,
	}, nil
}

// do runs one API call with retries. Network failures are retried with a
// jittered delay, everything else is returned to the caller immediately.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.retry.Backoff()); err != nil {
				return err
			}
		}
		err := c.once(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		if !IsNetwork(err) {
			return err
		}
		lastErr = err
		c.logger.Warn("Request failed, retrying...",
			zap.String("account", c.session),
			zap.String("endpoint", path),
			zap.Int("attempt", attempt),
			zap.Int("max", c.retry.Attempts),
			zap.Error(err))
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(c.initData)
	if body != nil {
		req.SetBody(body)
	}

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case resty.MethodGet:
		resp, err = req.Get(path)
	default:
		resp, err = req.Post(path)
	}
	if err != nil {
		return &NetworkError{Err: err}
	}
	return c.decode(resp, out)
}

func (c *Client) decode(resp *resty.Response, out any) error {
	raw := resp.Body()
	if resp.StatusCode() == 200 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "<html") || strings.HasPrefix(trimmed, "<!DOCTYPE") {
		return &NetworkError{Err: fmt.Errorf("html response with status %d", resp.StatusCode())}
	}

	var apiErr request.ErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" && apiErr.Name == "" {
		return &NetworkError{Err: fmt.Errorf("status %d: %s", resp.StatusCode(), snippet(trimmed))}
	}

	switch code := resp.StatusCode(); {
	case code == 418 && strings.Contains(strings.ToLower(apiErr.Message), "maintenance mode"):
		return &MaintenanceError{Message: apiErr.Message}
	case code == 401 || code == 403:
		return &AuthError{Status: code, Name: apiErr.Name, Message: apiErr.Message}
	case code == 429:
		return &NetworkError{Err: fmt.Errorf("rate limited: %s", apiErr.Message)}
	case code == 500 && strings.Contains(apiErr.Message, "Failed to acquire lock"):
		return &NetworkError{Err: fmt.Errorf("lock contention: %s", apiErr.Message)}
	case code >= 500:
		return &NetworkError{Err: fmt.Errorf("server error %d: %s %s", code, apiErr.Name, apiErr.Message)}
	default:
		return &GameLogicError{Status: code, Name: apiErr.Name, Message: apiErr.Message}
	}
}

func snippet(s string) string {
	const max = 200
	if len(s) > max {
		return s[:max]
	}
	return s
}

func (c *Client) GetUserData(ctx context.Context) (*request.UserDataResponse, error) {
	var out request.UserDataResponse
	if err := c.do(ctx, resty.MethodGet, constant.EndpointGetUserData, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConstellations(ctx context.Context, startIndex, amount int) (*request.ConstellationsResponse, error) {
	var out request.ConstellationsResponse
	body := request.GetConstellationsRequest{StartIndex: startIndex, Amount: amount}
	if err := c.do(ctx, resty.MethodPost, constant.EndpointGetConstellations, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendToChallenge(ctx context.Context, challengeType string, heroes []request.ChallengeHero) error {
	body := request.SendToChallengeRequest{ChallengeType: challengeType, Heroes: heroes}
	return c.do(ctx, resty.MethodPost, constant.EndpointSendToChallenge, body, nil)
}

func (c *Client) ClaimChallengesRewards(ctx context.Context) (*request.RewardsResponse, error) {
	var out request.RewardsResponse
	if err := c.do(ctx, resty.MethodGet, constant.EndpointClaimChallengesRewards, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDailyRewards(ctx context.Context) (*request.RewardsResponse, error) {
	var out request.RewardsResponse
	if err := c.do(ctx, resty.MethodGet, constant.EndpointGetDailyRewards, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClaimDailyRewards(ctx context.Context) error {
	return c.do(ctx, resty.MethodGet, constant.EndpointClaimDailyRewards, nil, nil)
}

func (c *Client) LevelUpHero(ctx context.Context, heroType string) error {
	body := request.LevelUpHeroRequest{HeroType: heroType}
	return c.do(ctx, resty.MethodPost, constant.EndpointLevelUpHero, body, nil)
}

func (c *Client) StarUpHero(ctx context.Context, heroType string) error {
	body := request.StarUpHeroRequest{HeroType: heroType}
	return c.do(ctx, resty.MethodPost, constant.EndpointStarUpHero, body, nil)
}

func (c *Client) GetShop(ctx context.Context) (*request.ShopResponse, error) {
	var out request.ShopResponse
	if err := c.do(ctx, resty.MethodGet, constant.EndpointGetShop, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BuyShop(ctx context.Context, slotType string) error {
	body := request.BuyShopRequest{SlotType: slotType}
	return c.do(ctx, resty.MethodPost, constant.EndpointBuyShop, body, nil)
}

func (c *Client) SpendGacha(ctx context.Context, amount int, strategy string) (*request.RewardsResponse, error) {
	var out request.RewardsResponse
	body := request.SpendGachaRequest{Amount: amount, Strategy: strategy}
	if err := c.do(ctx, resty.MethodPost, constant.EndpointSpendGacha, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UseRedeemCode(ctx context.Context, code string) (*request.RedeemResponse, error) {
	var out request.RedeemResponse
	body := request.UseRedeemCodeRequest{Code: code}
	if err := c.do(ctx, resty.MethodPost, constant.EndpointUseRedeemCode, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReferralsInfo(ctx context.Context) (*request.ReferralsInfoResponse, error) {
	var out request.ReferralsInfoResponse
	body := request.ReferralsInfoRequest{Page: 1, RowsPerPage: 20}
	if err := c.do(ctx, resty.MethodPost, constant.EndpointGetReferralsInfo, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClaimReferralRewards(ctx context.Context) (request.ReferralRewardsResponse, error) {
	var out request.ReferralRewardsResponse
	if err := c.do(ctx, resty.MethodGet, constant.EndpointClaimReferralRewards, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMissions(ctx context.Context) (*request.MissionsResponse, error) {
	var out request.MissionsResponse
	if err := c.do(ctx, resty.MethodGet, constant.EndpointGetMissions, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReportMissionEvent(ctx context.Context, missionKey string) error {
	body := request.MissionRequest{MissionKey: missionKey}
	return c.do(ctx, resty.MethodPost, constant.EndpointReportMissionEvent, body, nil)
}

func (c *Client) ClaimMission(ctx context.Context, missionKey string) error {
	body := request.MissionRequest{MissionKey: missionKey}
	return c.do(ctx, resty.MethodPost, constant.EndpointClaimMission, body, nil)
}
