package flow

import (
	"context"

	"ai-tripplanner-bot/pkg/telegram"
)

// Transport is the narrow messaging contract the flow engine needs.
// pkg/telegram's Client satisfies it; tests substitute a recorder.
type Transport interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
	EditMessageText(ctx context.Context, params telegram.EditMessageParams) error
	EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, markup *telegram.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
}
