package alerts

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// NoopNotifier satisfies Notifier when no delivery channel is configured.
// Alerts are still stored; only the push is skipped.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, *domain.Alert, *domain.EmergingAnalysis) error {
	return nil
}

// TelegramNotifier posts alerts to a single chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}, nil
}

func (t *TelegramNotifier) Notify(_ context.Context, alert *domain.Alert, analysis *domain.EmergingAnalysis) error {
	text := fmt.Sprintf("<b>%s</b>\n%s\n\nVerdict: %s\nStage: %s, lifecycle %s\nConfidence: %d (%s)",
		html.EscapeString(analysis.Name),
		html.EscapeString(alert.Message),
		html.EscapeString(analysis.Verdict),
		analysis.Stage, analysis.LifecycleStage,
		analysis.ConfidenceScore, analysis.ConfidenceLevel,
	)

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}

	t.logger.Debug().Str("kind", alert.Kind).Int64("entity_id", alert.EntityID).Msg("alert delivered")

	return nil
}
