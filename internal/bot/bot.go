package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/menupix/menupix/internal/markdown"
	"github.com/menupix/menupix/internal/service"
)

const (
	msgStart = `Hi! Send me a photo of a restaurant menu and I'll look up a picture of every dish on it.

Commands:
/help - how it works`

	msgHelp = `How it works:

1. Send a photo of a food menu
2. I check it really is a menu and read the dish names
3. You get a photo for each dish, streamed as I find them

Tips: good lighting and a straight-on shot read best.`

	msgSendPhoto  = "Please send a photo of a menu."
	msgProcessing = "Reading the menu..."
)

// Bot is the Telegram front end. It runs the same scan pipeline as the HTTP
// server and edits its reply as each dish photo resolves, so the user sees
// partial results while the searches are still running.
type Bot struct {
	api     *tgbotapi.BotAPI
	service *service.MenuService
	logger  *slog.Logger
}

func NewBot(token string, svc *service.MenuService, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("telegram bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:     api,
		service: svc,
		logger:  logger,
	}, nil
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)
	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)
	default:
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Last entry is the highest-resolution rendition.
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("failed to download photo", "chat_id", msg.Chat.ID, "error", err)
		b.sendMessage(msg.Chat.ID, markdown.MsgAnalyzeFailed)
		return
	}

	// Telegram re-encodes photo uploads as JPEG.
	dishes, results, err := b.service.Scan(ctx, imageData, "image/jpeg")
	if err != nil {
		b.sendMessage(msg.Chat.ID, scanMessage(err))
		return
	}

	// Send the header, then grow the same message block by block so the chat
	// shows partial results while the remaining searches run.
	var sb strings.Builder
	sb.WriteString(markdown.Header(len(dishes)))

	sentID, ok := b.sendMarkdown(msg.Chat.ID, sb.String())
	for res := range results {
		sb.WriteString(markdown.DishBlock(res))
		if ok {
			b.editMarkdown(msg.Chat.ID, sentID, sb.String())
		}
	}
	if !ok {
		// Initial send failed; fall back to one final message.
		b.sendMarkdown(msg.Chat.ID, sb.String())
	}
}

// scanMessage maps a pipeline error to the user-visible chat message.
func scanMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotMenu):
		return markdown.MsgNotMenu
	case errors.Is(err, service.ErrNoDishes):
		return markdown.MsgNoDishes
	default:
		return markdown.MsgAnalyzeFailed
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			b.logger.Error("failed to close telegram file body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// sendMarkdown sends text with Markdown formatting and returns the message ID
// for later edits. ok is false if the send failed.
func (b *Bot) sendMarkdown(chatID int64, text string) (messageID int, ok bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
		return 0, false
	}
	return sent.MessageID, true
}

func (b *Bot) editMarkdown(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message", "chat_id", chatID, "error", err)
	}
}
