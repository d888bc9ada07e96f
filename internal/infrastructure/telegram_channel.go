package infrastructure

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/logger"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	// Telegram rejects callback data longer than 64 bytes.
	maxCallbackData = 64
	buttonsPerRow   = 2
	updateTimeout   = 60
	turnTimeout     = 30 * time.Second

	// Per-chat throttle: one message per second, bursts of three.
	chatRateLimit     = rate.Limit(1)
	chatRateBurst     = 3
	sessionPruneEvery = 5 * time.Minute
	sessionMaxIdle    = 10 * time.Minute

	telegramWelcome = "Olá! Como posso ajudar?"
	telegramFailure = "Desculpe, não consegui processar sua mensagem agora. Tente novamente em instantes."
)

// telegramSender is the part of *tgbotapi.BotAPI the channel writes through.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramChannel long-polls one bot and answers every message on behalf of a
// single tenant.
type TelegramChannel struct {
	bot         *tgbotapi.BotAPI
	sender      telegramSender
	chat        interfaces.ChatHandler
	tenantToken string
	sessions    *chatSessions
	log         *logger.Logger
	wg          sync.WaitGroup
}

func NewTelegramChannel(botToken, tenantToken string, chat interfaces.ChatHandler, log *logger.Logger) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	ch := newTelegramChannel(bot, tenantToken, chat, log)
	ch.bot = bot
	return ch, nil
}

func newTelegramChannel(sender telegramSender, tenantToken string, chat interfaces.ChatHandler, log *logger.Logger) *TelegramChannel {
	return &TelegramChannel{
		sender:      sender,
		chat:        chat,
		tenantToken: tenantToken,
		sessions:    newChatSessions(chatRateLimit, chatRateBurst),
		log:         log.WithModule("telegram"),
	}
}

// Run polls until ctx is cancelled and then waits for in-flight turns.
func (t *TelegramChannel) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	updates := t.bot.GetUpdatesChan(u)

	t.log.Info("Telegram polling started", "bot", t.bot.Self.UserName)
	defer t.wg.Wait()

	prune := time.NewTicker(sessionPruneEvery)
	defer prune.Stop()

	for {
		select {
		case <-prune.C:
			if n := t.sessions.prune(sessionMaxIdle); n > 0 {
				t.log.Debug("Pruned idle chat sessions", "count", n)
			}
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.log.Info("Telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.handleUpdate(ctx, update)
			}()
		}
	}
}

func (t *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var (
		chatID   int64
		question string
	)

	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if _, err := t.sender.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.log.WithError(err).Warn("Failed to acknowledge callback")
		}
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		chatID, question = cb.Message.Chat.ID, cb.Data
	case update.Message != nil && update.Message.Chat != nil:
		chatID = update.Message.Chat.ID
		if update.Message.IsCommand() {
			if update.Message.Command() == "start" {
				t.send(tgbotapi.NewMessage(chatID, telegramWelcome))
			}
			return
		}
		question = update.Message.Text
	default:
		return
	}

	if strings.TrimSpace(question) == "" {
		return
	}
	if !t.sessions.begin(chatID) {
		t.log.Debug("Dropped message from busy or throttled chat", "chat_id", chatID)
		return
	}
	defer t.sessions.end(chatID)

	turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	resp, err := t.chat.HandleQuestion(turnCtx, entities.ChatRequest{Token: t.tenantToken, Question: question})
	if err != nil {
		t.log.WithError(err).Error("Chat turn failed", "chat_id", chatID)
		t.send(tgbotapi.NewMessage(chatID, telegramFailure))
		return
	}
	t.reply(chatID, resp)
}

func (t *TelegramChannel) reply(chatID int64, resp *entities.ChatResponse) {
	if resp.Response != "" || len(resp.QuickReplies) > 0 {
		text := resp.Response
		if text == "" {
			text = "Escolha uma opção:"
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if len(resp.QuickReplies) > 0 {
			msg.ReplyMarkup = QuickReplyKeyboard(resp.QuickReplies)
		}
		t.send(msg)
	}

	for _, image := range resp.Images {
		t.send(tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(image)))
	}
}

func (t *TelegramChannel) send(c tgbotapi.Chattable) {
	if _, err := t.sender.Send(c); err != nil {
		t.log.WithError(err).Warn("Failed to send Telegram message")
	}
}

// QuickReplyKeyboard lays out buttons two per row. The callback data carries
// the payload, or the title when the payload is empty.
func QuickReplyKeyboard(replies []entities.QuickReply) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, qr := range replies {
		data := qr.Payload
		if data == "" {
			data = qr.Title
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(qr.Title, truncateBytes(data, maxCallbackData)))

		if (i+1)%buttonsPerRow == 0 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
