package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"app/internal/apiclient"
	"app/internal/config"
)

// Handler routes Telegram updates to the purchase flow. All backend
// access goes through the apiclient.
type Handler struct {
	api    *tgbotapi.BotAPI
	cfg    *config.BotConfig
	client *apiclient.Client
	logger zerolog.Logger
}

func NewHandler(api *tgbotapi.BotAPI, cfg *config.BotConfig, client *apiclient.Client, logger zerolog.Logger) *Handler {
	return &Handler{
		api:    api,
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "bot").Logger(),
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.PreCheckoutQuery != nil:
		h.handlePreCheckout(ctx, upd.PreCheckoutQuery)
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.SuccessfulPayment != nil:
		h.handleSuccessfulPayment(ctx, upd.Message)
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}

	// Register on any contact so the profile exists before commands run.
	if err := h.client.Authenticate(ctx, msg.From.ID, msg.From.FirstName); err != nil {
		h.logger.Error().Err(err).Int64("telegram_id", msg.From.ID).Msg("registration failed")
		h.reply(msg.Chat.ID, "Something went wrong, please try again later.", false)
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(msg.Chat.ID)
	case "profile":
		h.handleProfile(ctx, msg.Chat.ID, msg.From.ID)
	case "prediction":
		h.handleGetPrediction(ctx, msg.Chat.ID, msg.From.ID)
	case "sign":
		h.sendSignKeyboard(msg.Chat.ID)
	case "rankings":
		h.handleRankings(ctx, msg.Chat.ID, msg.From.ID)
	default:
		if strings.TrimSpace(msg.Text) != "" {
			h.reply(msg.Chat.ID, "I don't know that one. Try /help.", false)
		}
	}
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Acknowledge so the button stops spinning.
	if _, err := h.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		h.logger.Debug().Err(err).Msg("callback ack failed")
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	if err := h.client.Authenticate(ctx, q.From.ID, q.From.FirstName); err != nil {
		h.logger.Error().Err(err).Int64("telegram_id", q.From.ID).Msg("registration failed")
		return
	}

	switch {
	case q.Data == "get_prediction":
		h.handleGetPrediction(ctx, chatID, q.From.ID)
	case q.Data == "profile":
		h.handleProfile(ctx, chatID, q.From.ID)
	case q.Data == "rankings":
		h.handleRankings(ctx, chatID, q.From.ID)
	case q.Data == "choose_sign":
		h.sendSignKeyboard(chatID)
	case strings.HasPrefix(q.Data, "sign:"):
		h.handleSignChosen(ctx, chatID, q.From.ID, strings.TrimPrefix(q.Data, "sign:"))
	}
}

func (h *Handler) reply(chatID int64, text string, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (h *Handler) replyWithKeyboard(chatID int64, text string, markdown bool, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	msg.ReplyMarkup = kb
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}
