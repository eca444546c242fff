// Package updater polls the GitHub release feed on a schedule and reports
// when a newer build is published. A compiled binary cannot swap itself out,
// so the check only notifies.
package updater

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sleepchann/constant"
)

// Checker polls the release feed.
type Checker struct {
	http       *resty.Client
	releaseURL string
	interval   time.Duration
	logger     *zap.Logger
	notify     func(string)
	seen       string
}

func New(interval time.Duration, logger *zap.Logger, notify func(string)) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Checker{
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("accept", "application/vnd.github+json"),
		releaseURL: constant.UpdateReleaseURL,
		interval:   interval,
		logger:     logger,
		notify:     notify,
	}
}

// Start checks once right away, then keeps checking on the configured
// interval until ctx is canceled.
func (c *Checker) Start(ctx context.Context) error {
	c.check(ctx)

	cr := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	spec := fmt.Sprintf("@every %s", c.interval)
	if _, err := cr.AddFunc(spec, func() { c.check(context.Background()) }); err != nil {
		return fmt.Errorf("schedule release check: %w", err)
	}
	cr.Start()

	go func() {
		<-ctx.Done()
		cr.Stop()
	}()
	return nil
}

func (c *Checker) check(ctx context.Context) {
	var release struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&release).
		Get(c.releaseURL)
	if err != nil {
		c.logger.Debug("Release check failed", zap.Error(err))
		return
	}
	if res.StatusCode() != http.StatusOK || release.TagName == "" {
		c.logger.Debug("Release check got no release", zap.Int("status", res.StatusCode()))
		return
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == constant.Version || latest == c.seen {
		return
	}
	c.seen = latest

	c.logger.Warn("A newer release is available",
		zap.String("current", constant.Version),
		zap.String("latest", latest),
		zap.String("url", release.HTMLURL))

	if c.notify != nil {
		c.notify(fmt.Sprintf("Update available: %s -> %s\n%s", constant.Version, latest, release.HTMLURL))
	}
}
