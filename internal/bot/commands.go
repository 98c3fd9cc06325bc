package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"app/internal/apiclient"
	"app/internal/zodiac"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💫 Get prediction", "get_prediction"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Profile", "profile"),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Rankings", "rankings"),
		),
	)
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	text := fmt.Sprintf(`🔮 *Welcome to the Prediction Bot!*

Hi, %s!

I deliver a personal daily horoscope based on your zodiac sign.

💰 Price: 1 Telegram Star (XTR ⭐️) per prediction
⏰ Limit: one prediction per day

Pick your sign with /sign, then press the button below.`, msg.From.FirstName)
	h.replyWithKeyboard(msg.Chat.ID, text, true, mainMenuKeyboard())
}

func (h *Handler) handleHelp(chatID int64) {
	h.reply(chatID, `🔮 *Prediction Bot commands*

/start - main menu
/help - this help
/profile - your profile
/sign - choose your zodiac sign
/prediction - buy today's prediction
/rankings - most active users

Payments are made in Telegram Stars (XTR ⭐️), 1 XTR per prediction. One prediction per calendar day.`, true)
}

func (h *Handler) handleProfile(ctx context.Context, chatID, telegramID int64) {
	user, err := h.client.Me(ctx, telegramID)
	if err != nil {
		h.logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("profile fetch failed")
		h.reply(chatID, "❌ Could not load your profile, try again later.", false)
		return
	}

	signLine := "not set, use /sign"
	if user.ZodiacSign != nil {
		if info, ok := zodiac.Info(zodiac.Sign(*user.ZodiacSign)); ok {
			signLine = fmt.Sprintf("%s %s", info.Emoji, info.Title)
		}
	}

	text := fmt.Sprintf(`👤 *Your profile*

👋 Name: %s
✨ Sign: %s
⭐️ Predictions: %d
📅 Joined: %s`,
		user.FirstName, signLine, user.PredictionsCount, user.CreatedAt.Format("2006-01-02"))
	h.replyWithKeyboard(chatID, text, true, mainMenuKeyboard())
}

func (h *Handler) sendSignKeyboard(chatID int64) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 4)
	row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for _, s := range zodiac.Signs {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s", s.Emoji, s.Title),
			"sign:"+string(s.Name),
		))
		if len(row) == 3 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 3)
		}
	}
	h.replyWithKeyboard(chatID, "✨ Choose your zodiac sign:", false, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) handleSignChosen(ctx context.Context, chatID, telegramID int64, sign string) {
	if !zodiac.Valid(zodiac.Sign(sign)) {
		h.reply(chatID, "❌ Unknown sign.", false)
		return
	}
	user, err := h.client.SetZodiacSign(ctx, telegramID, sign)
	if err != nil {
		h.logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("sign update failed")
		h.reply(chatID, "❌ Could not save your sign, try again later.", false)
		return
	}
	info, _ := zodiac.Info(zodiac.Sign(*user.ZodiacSign))
	h.replyWithKeyboard(chatID,
		fmt.Sprintf("%s Your sign is now *%s*. Ready for your prediction?", info.Emoji, info.Title),
		true, mainMenuKeyboard())
}

func (h *Handler) handleGetPrediction(ctx context.Context, chatID, telegramID int64) {
	// Entitlement first: a denied user gets the countdown, not an invoice.
	can, err := h.client.CanPurchase(ctx, telegramID)
	if err != nil {
		h.logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("can-purchase check failed")
		h.reply(chatID, "❌ Could not check availability, try again later.", false)
		return
	}
	if !can.CanPurchase {
		h.reply(chatID, fmt.Sprintf(
			"⏰ You already got your prediction today!\n\nThe next one unlocks in %s.",
			formatCountdown(time.Duration(can.RetryAfterSeconds)*time.Second)), false)
		return
	}

	user, err := h.client.Me(ctx, telegramID)
	if err != nil {
		h.logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("profile fetch failed")
		h.reply(chatID, "❌ Could not load your profile, try again later.", false)
		return
	}
	if user.ZodiacSign == nil {
		h.replyWithKeyboard(chatID, "❗️ Pick your zodiac sign first.", false,
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✨ Choose sign", "choose_sign"))))
		return
	}

	payment, err := h.client.OpenPayment(ctx, telegramID)
	if err != nil {
		if errors.Is(err, apiclient.ErrEntitlementDenied) {
			h.reply(chatID, "⏰ You already got your prediction today!", false)
			return
		}
		h.logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("payment creation failed")
		h.reply(chatID, "❌ Could not create the payment, try again later.", false)
		return
	}

	h.sendInvoice(chatID, payment.PaymentID, payment.Amount, payment.Currency)
}

func (h *Handler) handleRankings(ctx context.Context, chatID, telegramID int64) {
	entries, err := h.client.Rankings(ctx, telegramID)
	if err != nil {
		h.logger.Error().Err(err).Msg("rankings fetch failed")
		h.reply(chatID, "❌ Could not load the rankings, try again later.", false)
		return
	}
	if len(entries) == 0 {
		h.reply(chatID, "📊 The leaderboard is empty so far.", false)
		return
	}

	var b strings.Builder
	b.WriteString("🏆 *Top users:*\n\n")
	for i, e := range entries {
		medal := fmt.Sprintf("%d.", i+1)
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		fmt.Fprintf(&b, "%s %s: %d predictions\n", medal, e.FirstName, e.PredictionsCount)
	}
	h.reply(chatID, b.String(), true)
}

func formatCountdown(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
