package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"support-flow-bot/internal/logger"
	"support-flow-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// префикс канала Telegram в id пользователя
const TelegramPrefix = "tg"

// Telegram принимает сообщения длинным опросом и отправляет подсказки
// с вариантами ответов как reply-клавиатуру.
type Telegram struct {
	api    *tgbotapi.BotAPI
	engine *session.Engine
	client *http.Client
}

func NewTelegram(token string, engine *session.Engine) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к telegram: %w", err)
	}

	logger.Info("Telegram бот авторизован:", api.Self.UserName)

	return &Telegram{
		api:    api,
		engine: engine,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Run крутит цикл получения обновлений до отмены контекста.
func (t *Telegram) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := t.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *Telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := fmt.Sprintf("%s:%d", TelegramPrefix, msg.Chat.ID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			_ = t.engine.Start(ctx, userID)
		case "cancel":
			_ = t.engine.Cancel(ctx, userID)
		default:
			_ = t.engine.HandleText(ctx, userID, msg.Text)
		}
		return
	}

	if kind, fileID := attachmentOf(msg); fileID != "" {
		data, err := t.download(fileID)
		if err != nil {
			logger.Warning("Не удалось скачать файл из telegram:", err)
			return
		}
		_ = t.engine.HandleAttachment(ctx, userID, kind, data)

		// подпись к файлу обрабатываем как обычный ответ
		if msg.Caption == "" {
			return
		}
		_ = t.engine.HandleText(ctx, userID, msg.Caption)
		return
	}

	_ = t.engine.HandleText(ctx, userID, msg.Text)
}

// Prompt реализует session.Messenger для канала Telegram.
func (t *Telegram) Prompt(ctx context.Context, userID, text string, options []string, allowBack bool) error {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(userID, TelegramPrefix+":"), 10, 64)
	if err != nil {
		return fmt.Errorf("не корректный telegram id: %s", userID)
	}

	msg := tgbotapi.NewMessage(chatID, text)

	if len(options) == 0 && !allowBack {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	} else {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(options)+1)
		for _, option := range options {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(option)))
		}
		if allowBack {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Назад")))
		}
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(rows...)
	}

	_, err = t.api.Send(msg)
	return err
}

// attachmentOf определяет вид вложения и id файла для скачивания.
func attachmentOf(msg *tgbotapi.Message) (kind, fileID string) {
	switch {
	case len(msg.Photo) > 0:
		// последний элемент — самое большое разрешение
		return "photo", msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil:
		return "document", msg.Document.FileID
	case msg.Voice != nil:
		return "voice", msg.Voice.FileID
	case msg.Video != nil:
		return "video", msg.Video.FileID
	default:
		return "", ""
	}
}

func (t *Telegram) download(fileID string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram вернул статус %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
