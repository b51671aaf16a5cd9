package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"meal-recommender/internal/app"
	"meal-recommender/internal/metrics"
	"meal-recommender/internal/planner"
	"meal-recommender/internal/ranker"

	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// DefaultCalories is used by /plan when no budget is given.
const DefaultCalories = 2000

const (
	rankTopN       = 5
	usageDays      = 7
	requestTimeout = time.Minute
)

// Service is the part of app.App the bot uses.
type Service interface {
	ComposePlan(ctx context.Context, tags []string, totalCalories int) (*planner.MealPlan, error)
	RankCandidates(ctx context.Context, userID, query string, topN int) ([]ranker.RankedItem, error)
	Usage(ctx context.Context, days int) (*app.UsageReport, error)
}

// Sender delivers messages; *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers plan and rank requests over Telegram.
type Bot struct {
	sender  Sender
	svc     Service
	adminID int64
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

// NewBot initializes the Telegram API and sets the webhook.
func NewBot(token, webhookURL string, adminID int64, svc Service, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger = logger.With().Str("component", "telegram").Logger()
	logger.Info().Str("account", api.Self.UserName).Msg("authorized")

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	logger.Info().Str("response", resp.Description).Msg("webhook set")

	return newBot(api, svc, adminID, logger), nil
}

func newBot(sender Sender, svc Service, adminID int64, logger zerolog.Logger) *Bot {
	return &Bot{sender: sender, svc: svc, adminID: adminID, logger: logger}
}

// HandleWebhook decodes an update and processes it in the background so
// Telegram gets its 200 immediately.
func (b *Bot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn().Err(err).Msg("failed to parse update")
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	if update.Message == nil || update.Message.From == nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		b.processMessage(ctx, update.Message)
	}()
}

// Wait blocks until in-flight updates finish.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	command := "rank"
	if msg.IsCommand() {
		command = msg.Command()
	}
	metrics.BotUpdates.WithLabelValues(command).Inc()

	switch command {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "plan":
		b.handlePlan(ctx, msg)
	case "metrics":
		b.handleMetrics(ctx, msg)
	case "rank":
		b.handleRank(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

const helpText = "🥗 *Meal Recommender*\n\n" +
	"/plan `<tags> <calories>` builds a breakfast, lunch and dinner plan, e.g. `/plan vegan,healthy 1800`.\n" +
	"Any other text finds items for you, e.g. _healthy lunch under 600 calories with chicken_."

func (b *Bot) handlePlan(ctx context.Context, msg *tgbotapi.Message) {
	tags, calories, err := parsePlanArgs(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, "❌ "+err.Error())
		return
	}

	plan, err := b.svc.ComposePlan(ctx, tags, calories)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to compose plan")
		b.reply(msg.Chat.ID, "❌ *Error composing plan.*")
		return
	}
	b.reply(msg.Chat.ID, formatPlanMarkdown(plan))
}

func (b *Bot) handleRank(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	items, err := b.svc.RankCandidates(ctx, userID, msg.Text, rankTopN)
	if err != nil {
		b.logger.Error().Err(err).Str("user_id", userID).Msg("failed to rank candidates")
		b.reply(msg.Chat.ID, "❌ *Error finding meals.*")
		return
	}
	b.reply(msg.Chat.ID, formatRankingMarkdown(items))
}

func (b *Bot) handleMetrics(ctx context.Context, msg *tgbotapi.Message) {
	if b.adminID == 0 || msg.From.ID != b.adminID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	report, err := b.svc.Usage(ctx, usageDays)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to fetch usage")
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.reply(msg.Chat.ID, formatUsageMarkdown(report))
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(m); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}

// parsePlanArgs reads "<tags> <calories>". Tags may be comma or space
// separated; a trailing integer is the calorie budget.
func parsePlanArgs(args string) ([]string, int, error) {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	calories := DefaultCalories
	if n := len(fields); n > 0 {
		if v, err := strconv.Atoi(fields[n-1]); err == nil {
			if v <= 0 {
				return nil, 0, errors.New("calories must be positive")
			}
			calories = v
			fields = fields[:n-1]
		}
	}
	return fields, calories, nil
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPlanMarkdown(plan *planner.MealPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Meal Plan* (%d kcal)\n\n", plan.TotalCalories))

	for _, s := range plan.Slots {
		label := strings.ToUpper(string(s.MealType[:1])) + string(s.MealType[1:])
		if !s.Found() {
			sb.WriteString(fmt.Sprintf("*%s*: _%s_\n", label, s.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("*%s*: %s (%d kcal)", label, escape(s.Name), s.Calories))
		if s.Outcome == metrics.OutcomeRandomFallback {
			sb.WriteString(" 🎲")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n🔥 *Total:* %d kcal", plan.PlannedCalories()))
	return sb.String()
}

func formatRankingMarkdown(items []ranker.RankedItem) string {
	if len(items) == 0 {
		return "🤷 No matching meals found."
	}
	var sb strings.Builder
	sb.WriteString("🍽 *Top picks for you*\n\n")
	for i, it := range items {
		cal := "? kcal"
		if it.CaloriesKnown {
			cal = fmt.Sprintf("%d kcal", it.Calories)
		}
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, escape(it.Name), cal))
	}
	return sb.String()
}

func formatUsageMarkdown(r *app.UsageReport) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(r.Daily) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range r.Daily {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	h := r.Health
	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", h.AllocMB, h.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", h.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", h.Uptime))
	sb.WriteString(fmt.Sprintf("• Catalog: %d items\n", h.CatalogItems))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", h.DataDiskSize))
	return sb.String()
}
