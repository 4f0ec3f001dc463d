package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ChatLinker привязывает чат к учителю по одноразовому коду
type ChatLinker interface {
	LinkTelegram(ctx context.Context, code string, chatID int64) (string, error)
}

// TelegramNotifier отправляет уведомления через Telegram-бота и обслуживает /vincular
type TelegramNotifier struct {
	bot    *bot.Bot
	linker ChatLinker
	logger *zap.Logger
}

func NewTelegramNotifier(token string, logger *zap.Logger) (*TelegramNotifier, error) {
	n := &TelegramNotifier{logger: logger}

	b, err := bot.New(token, bot.WithDefaultHandler(n.handleDefault))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	n.bot = b

	return n, nil
}

// SetLinker подключает сервис привязки; без него /vincular отвечает ошибкой
func (n *TelegramNotifier) SetLinker(linker ChatLinker) {
	n.linker = linker
}

func (n *TelegramNotifier) Enabled() bool { return true }

// Send отправляет сообщение
func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		n.logger.Error("Failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// SendPhoto отправляет PNG с подписью
func (n *TelegramNotifier) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	_, err := n.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "semana.png", Data: bytes.NewReader(png)},
		Caption: caption,
	})
	if err != nil {
		n.logger.Error("Failed to send telegram photo",
			zap.Int64("chat_id", chatID),
			zap.Int("bytes", len(png)),
			zap.Error(err))
		return fmt.Errorf("send telegram photo: %w", err)
	}
	return nil
}

// Start регистрирует команды и запускает long polling до отмены ctx
func (n *TelegramNotifier) Start(ctx context.Context) {
	n.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, n.handleStart)
	n.bot.RegisterHandler(bot.HandlerTypeMessageText, "/vincular", bot.MatchTypePrefix, n.handleVincular)

	_, err := n.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Cómo recibir avisos de tus clases"},
			{Command: "vincular", Description: "Vincular este chat con tu cuenta de profesor"},
		},
	})
	if err != nil {
		n.logger.Error("Failed to set bot commands", zap.Error(err))
	}

	n.logger.Info("Starting telegram bot")
	n.bot.Start(ctx)
}

func (n *TelegramNotifier) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	n.reply(ctx, update.Message.Chat.ID,
		"👋 Hola. Genera un código en la aplicación (Perfil → Telegram) y envíalo aquí con:\n\n/vincular CÓDIGO")
}

func (n *TelegramNotifier) handleVincular(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	code := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/vincular"))
	if code == "" {
		n.reply(ctx, chatID, "❌ Indica el código: /vincular CÓDIGO")
		return
	}
	if n.linker == nil {
		n.reply(ctx, chatID, "❌ La vinculación no está disponible ahora mismo.")
		return
	}

	nombre, err := n.linker.LinkTelegram(ctx, strings.ToUpper(code), chatID)
	if err != nil {
		n.logger.Warn("Telegram link failed", zap.Int64("chat_id", chatID), zap.Error(err))
		n.reply(ctx, chatID, "❌ El código no es válido o ya expiró. Genera uno nuevo en la aplicación.")
		return
	}

	n.reply(ctx, chatID, fmt.Sprintf("✅ Listo, %s. Recibirás aquí los avisos de tus clases.", nombre))
}

func (n *TelegramNotifier) handleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	n.logger.Debug("Ignoring telegram message", zap.Int64("chat_id", update.Message.Chat.ID))
}

func (n *TelegramNotifier) reply(ctx context.Context, chatID int64, text string) {
	// Ошибка уже залогирована в Send
	_ = n.Send(ctx, chatID, text)
}
