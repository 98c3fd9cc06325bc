package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"app/internal/api/v1/dto"
	"app/internal/apiclient"
	"app/internal/zodiac"
)

// invoicePayloadPrefix ties a Telegram invoice back to the ledger row.
const invoicePayloadPrefix = "prediction_payment_"

func (h *Handler) sendInvoice(chatID int64, paymentID string, amount int64, currency string) {
	invoice := tgbotapi.NewInvoice(
		chatID,
		"🔮 Personal prediction",
		"A unique prediction for today, written for your zodiac sign",
		invoicePayloadPrefix+paymentID,
		"", // provider token stays empty for Telegram Stars
		"prediction_payment",
		currency,
		[]tgbotapi.LabeledPrice{{Label: "Prediction", Amount: int(amount)}},
	)
	invoice.SuggestedTipAmounts = []int{}
	if _, err := h.api.Request(invoice); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("invoice send failed")
		h.reply(chatID, "❌ Could not send the invoice, try again later.", false)
	}
}

func (h *Handler) handlePreCheckout(ctx context.Context, q *tgbotapi.PreCheckoutQuery) {
	answer := tgbotapi.PreCheckoutConfig{PreCheckoutQueryID: q.ID, OK: true}

	paymentID, ok := strings.CutPrefix(q.InvoicePayload, invoicePayloadPrefix)
	if !ok {
		answer.OK = false
		answer.ErrorMessage = "Unknown payment type"
	} else if _, err := h.client.GetPayment(ctx, q.From.ID, paymentID); err != nil {
		answer.OK = false
		answer.ErrorMessage = "Payment not found"
		if !errors.Is(err, apiclient.ErrNotFound) {
			h.logger.Error().Err(err).Str("payment_id", paymentID).Msg("pre-checkout lookup failed")
			answer.ErrorMessage = "Payment could not be verified, please retry"
		}
	}

	if _, err := h.api.Request(answer); err != nil {
		h.logger.Error().Err(err).Msg("pre-checkout answer failed")
	}
}

func (h *Handler) handleSuccessfulPayment(ctx context.Context, msg *tgbotapi.Message) {
	payment := msg.SuccessfulPayment
	paymentID, ok := strings.CutPrefix(payment.InvoicePayload, invoicePayloadPrefix)
	if !ok {
		h.logger.Warn().Str("payload", payment.InvoicePayload).Msg("successful payment with unknown payload")
		return
	}

	prediction, err := h.client.ConfirmPayment(ctx, msg.From.ID, paymentID, payment.TelegramPaymentChargeID)
	if err != nil {
		// A replayed confirmation means the grant already happened;
		// show the existing prediction instead of an error.
		if errors.Is(err, apiclient.ErrAlreadyProcessed) {
			if existing, terr := h.client.TodayPrediction(ctx, msg.From.ID); terr == nil {
				h.sendPrediction(msg.Chat.ID, existing)
				return
			}
		}
		if errors.Is(err, apiclient.ErrMissingZodiacSign) {
			h.reply(msg.Chat.ID, "❗️ Set your sign with /sign, then press the button again. Your payment is still reserved.", false)
			return
		}
		h.logger.Error().Err(err).Str("payment_id", paymentID).Msg("payment confirmation failed")
		h.reply(msg.Chat.ID, "❌ The payment could not be processed. Please contact support.", false)
		return
	}

	h.sendPrediction(msg.Chat.ID, prediction)
}

func (h *Handler) sendPrediction(chatID int64, p *dto.PredictionResponseDTO) {
	title := p.ZodiacSign
	emoji := "✨"
	if info, ok := zodiac.Info(zodiac.Sign(p.ZodiacSign)); ok {
		title = info.Title
		emoji = info.Emoji
	}
	text := fmt.Sprintf(`🔮 *Your prediction for today*

%s *%s*

%s

📅 %s

_The next prediction unlocks tomorrow!_`, emoji, title, p.Text, p.PredictionDate)
	h.reply(chatID, text, true)
}
