package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier отправляет сообщения в чат учителя
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error
	Enabled() bool
}

// Nop используется когда Telegram не настроен
type Nop struct{}

func (Nop) Send(context.Context, int64, string) error { return nil }

func (Nop) SendPhoto(context.Context, int64, []byte, string) error { return nil }

func (Nop) Enabled() bool { return false }

// Recorder запоминает отправленные сообщения, для тестов и локального запуска
type Recorder struct {
	Logger   *zap.Logger
	Messages []Message
}

type Message struct {
	ChatID int64
	Text   string
	Photo  []byte
}

func (r *Recorder) Send(_ context.Context, chatID int64, text string) error {
	r.Messages = append(r.Messages, Message{ChatID: chatID, Text: text})
	if r.Logger != nil {
		r.Logger.Debug("Notification recorded", zap.Int64("chat_id", chatID))
	}
	return nil
}

func (r *Recorder) SendPhoto(_ context.Context, chatID int64, png []byte, caption string) error {
	r.Messages = append(r.Messages, Message{ChatID: chatID, Text: caption, Photo: png})
	if r.Logger != nil {
		r.Logger.Debug("Photo recorded", zap.Int64("chat_id", chatID), zap.Int("bytes", len(png)))
	}
	return nil
}

func (r *Recorder) Enabled() bool { return true }
