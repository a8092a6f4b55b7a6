package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🛒 *Family Meal Planner*

/list - show what is left to buy
/add <item> - put an item on the list
/clear - remove checked items
/shopped - mark this week's meals as shopped
Send a recipe link to import it.`

// Sender is the part of the Telegram API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ShoppingList is the shopping list the bot reads and edits.
type ShoppingList interface {
	Current(ctx context.Context) ([]shopping.ShopItem, error)
	AddManualItem(ctx context.Context, name string) (*shopping.ManualItem, error)
	ClearChecked(ctx context.Context) (int, error)
}

// WeekShopper marks planned meals in a date range as shopped.
type WeekShopper interface {
	MarkShopped(ctx context.Context, from, to string) (int, error)
}

// UsageReporter reports recent model usage.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Options configures a Bot.
type Options struct {
	AllowedUserIDs []int64
	AdminID        int64
	DataPath       string
}

// Bot wraps the Telegram API around the shared shopping list.
type Bot struct {
	api      Sender
	list     ShoppingList
	planner  WeekShopper
	importer recipe.Importer
	usage    UsageReporter
	opts     Options
	now      func() time.Time
}

// Connect authorizes against Telegram and points the webhook at webhookURL.
func Connect(token, webhookURL string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)
	return api, nil
}

// NewBot creates a Bot. importer and usage may be nil when AI features are off.
func NewBot(api Sender, list ShoppingList, p WeekShopper, importer recipe.Importer, usage UsageReporter, opts Options) *Bot {
	return &Bot{
		api:      api,
		list:     list,
		planner:  p,
		importer: importer,
		usage:    usage,
		opts:     opts,
		now:      time.Now,
	}
}

// RegisterHandlers registers the webhook handler on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("Error parsing update: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if !b.allowed(msg.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", msg.From.ID, msg.From.UserName)
		return
	}

	go b.processMessage(msg)
}

func (b *Bot) allowed(userID int64) bool {
	for _, id := range b.opts.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg.Chat.ID, text)
		return
	}

	switch msg.Command() {
	case "list":
		b.handleList(ctx, msg.Chat.ID)
	case "add":
		b.handleAdd(ctx, msg.Chat.ID, msg.CommandArguments())
	case "clear":
		b.handleClear(ctx, msg.Chat.ID)
	case "shopped":
		b.handleShopped(ctx, msg.Chat.ID)
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
	default:
		b.reply(msg.Chat.ID, helpText, tgbotapi.ModeMarkdown)
	}
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, name string) {
	item, err := b.list.AddManualItem(ctx, name)
	if err != nil {
		if errors.Is(err, shopping.ErrEmptyName) {
			b.reply(chatID, "Usage: /add <item>", "")
			return
		}
		log.Printf("Error adding item: %v", err)
		b.reply(chatID, "❌ Could not add the item.", "")
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Added %s", item.Name), "")
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	items, err := b.list.Current(ctx)
	if err != nil {
		log.Printf("Error loading shopping list: %v", err)
		b.reply(chatID, "❌ Could not load the shopping list.", "")
		return
	}
	b.reply(chatID, renderList(items), "")
}

func (b *Bot) handleClear(ctx context.Context, chatID int64) {
	n, err := b.list.ClearChecked(ctx)
	if err != nil {
		log.Printf("Error clearing checked items: %v", err)
		b.reply(chatID, "❌ Could not clear checked items.", "")
		return
	}
	b.reply(chatID, fmt.Sprintf("🧹 Removed %d checked items.", n), "")
}

func (b *Bot) handleShopped(ctx context.Context, chatID int64) {
	from, to := planner.WeekBounds(b.now())
	n, err := b.planner.MarkShopped(ctx, from, to)
	if err != nil {
		log.Printf("Error marking week shopped: %v", err)
		b.reply(chatID, "❌ Could not mark the week as shopped.", "")
		return
	}
	b.reply(chatID, fmt.Sprintf("🛍️ Marked %d meals (%s to %s) as shopped.", n, from, to), "")
}

func (b *Bot) handleClipperRequest(ctx context.Context, chatID int64, url string) {
	if b.importer == nil {
		b.reply(chatID, "Recipe import is not configured.", "")
		return
	}

	b.reply(chatID, "✂️ *Clipping recipe...*", tgbotapi.ModeMarkdown)

	rec, err := b.importer.ImportURL(ctx, url)
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		b.reply(chatID, "❌ Error clipping recipe: "+err.Error(), "")
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Recipe saved: %s (%d ingredients)", rec.Name, len(rec.Ingredients)), "")
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.opts.AdminID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.", tgbotapi.ModeMarkdown)
		return
	}

	var usage []metrics.DailyUsage
	if b.usage != nil {
		var err error
		usage, err = b.usage.GetDailyUsage(ctx, 7)
		if err != nil {
			b.reply(msg.Chat.ID, "❌ Error fetching metrics.", "")
			return
		}
	}

	health := metrics.GetSysHealth(b.opts.DataPath)
	b.reply(msg.Chat.ID, "📊 Usage & Health Report\n\n"+metrics.Report(health, usage), "")
}

func (b *Bot) reply(chatID int64, text, parseMode string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

// renderList formats the remaining items for a chat message.
func renderList(items []shopping.ShopItem) string {
	body := shopping.Format(items)
	if body == "" {
		return "🛒 Nothing left to buy."
	}
	return "🛒 Shopping list\n\n" + body
}
