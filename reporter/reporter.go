// Package reporter runs the optional Telegram report bot. It answers /status
// with a fleet overview built from the runners' live stats and pushes fatal
// session failures to the admin chat.
package reporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"sleepchann/runner"
)

// Reporter is the report bot. A nil *Reporter is valid and discards
// everything, so callers wire it unconditionally.
type Reporter struct {
	bot    *bot.Bot
	chatID int64
	stats  *runner.Collector
	logger *zap.Logger
}

// New builds the report bot, or (nil, nil) when no token is configured.
func New(token string, adminChatID int64, stats *runner.Collector, logger *zap.Logger) (*Reporter, error) {
	if token == "" {
		return nil, nil
	}

	r := &Reporter{chatID: adminChatID, stats: stats, logger: logger}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create report bot: %w", err)
	}
	r.bot = b

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, r.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, r.handleStatus)
	return r, nil
}

// Start long-polls for commands until ctx is canceled.
func (r *Reporter) Start(ctx context.Context) {
	if r == nil {
		return
	}
	r.logger.Info("Report bot listening")
	r.bot.Start(ctx)
}

// Notify pushes one line to the admin chat. Runners call it on fatal
// session failures.
func (r *Reporter) Notify(text string) {
	if r == nil || r.chatID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	r.send(ctx, r.chatID, "⚠️ "+text)
}

func (r *Reporter) logInteraction(update *models.Update, action string) {
	username := update.Message.From.Username
	if username == "" {
		username = fmt.Sprintf("%s %s", update.Message.From.FirstName, update.Message.From.LastName)
	}
	r.logger.Info("Bot command", zap.String("user", username), zap.String("action", action))
}

func (r *Reporter) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	r.logInteraction(update, "started the bot")
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Welcome, please send the /status command for the farming report",
	}); err != nil {
		r.logger.Error("Error sending message", zap.Error(err))
	}
}

func (r *Reporter) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	r.logInteraction(update, "requested the farming report")
	r.send(ctx, update.Message.Chat.ID, r.buildReport())
}

// maskName hides the middle of a session name, keeping two characters on
// each side.
func maskName(name string) string {
	if name == "" {
		return name
	}

	//if the name is too short, just mask half of it
	if len(name) <= 3 {
		return name[:1] + "***"
	}

	maskLength := len(name) - 4
	if maskLength < 1 {
		maskLength = 1
	}
	return name[:2] + strings.Repeat("*", maskLength) + name[len(name)-2:]
}

func (r *Reporter) buildReport() string {
	sessions := r.stats.Snapshot()

	var lines []string
	lines = append(lines, "🔍 Sleepagotchi Farming Report")
	lines = append(lines, fmt.Sprintf("📊 Total Sessions: %d\n", len(sessions)))

	var totalCycles, totalActions, farming int
	for i, s := range sessions {
		prefix := fmt.Sprintf("%d. %s [%s]", i+1, maskName(s.Name), s.Phase)

		if s.LastError != "" {
			lines = append(lines, fmt.Sprintf("%s\n❌ %s\n", prefix, s.LastError))
			continue
		}
		if s.Cycles == 0 {
			lines = append(lines, fmt.Sprintf("%s\n⏳ No cycle finished yet\n", prefix))
			continue
		}

		farming++
		totalCycles += s.Cycles
		actions := countActions(s.Actions)
		totalActions += actions

		lines = append(lines, fmt.Sprintf("%s\n💎 %d | 💰 %d | 🟢 %d | 🟣 %d | 🎰 %d\n🔁 %d cycles, %d actions, next %s\n",
			prefix,
			s.Gems, s.Gold, s.GreenStones, s.PurpleStones, s.GachaTokens,
			s.Cycles, actions, s.NextCycle.Format("15:04")))
	}

	if farming > 0 {
		lines = append(lines, "\n📈 Summary:")
		lines = append(lines, fmt.Sprintf("• Farming: %d/%d (%.1f%%)",
			farming, len(sessions), float64(farming)/float64(len(sessions))*100))
		lines = append(lines, fmt.Sprintf("• Cycles: %d", totalCycles))
		lines = append(lines, fmt.Sprintf("• Actions: %d", totalActions))
	}

	lines = append(lines, fmt.Sprintf("\n🕒 %s", time.Now().Format("2006-01-02 15:04:05")))
	return strings.Join(lines, "\n")
}

func countActions(m map[string]int) int {
	var n int
	for _, v := range m {
		n += v
	}
	return n
}

func (r *Reporter) send(ctx context.Context, chatID int64, text string) {
	maxRetries := 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err := r.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if err == nil {
			return
		}

		if attempt == maxRetries {
			r.logger.Error("Failed to send telegram message after retries",
				zap.Int("attempts", attempt),
				zap.Error(err))
		} else {
			r.logger.Warn("Failed to send telegram message, retrying...",
				zap.Int("attempt", attempt),
				zap.Error(err))
			time.Sleep(time.Second * time.Duration(attempt))
		}
	}
}
