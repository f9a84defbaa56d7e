package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"support-flow-bot/internal/logger"
	"support-flow-bot/internal/session"

	"github.com/gin-gonic/gin"
)

// префикс канала ВКонтакте в id пользователя
const VKPrefix = "vk"

const vkAPIVersion = "5.131"

// VK обслуживает Callback API сообщества и отправляет сообщения через
// messages.send с клавиатурой вариантов.
type VK struct {
	token        string
	secret       string
	confirmation string
	engine       *session.Engine

	cl *http.Client
}

func NewVK(token, secret, confirmation string, engine *session.Engine) *VK {
	return &VK{
		token:        token,
		secret:       secret,
		confirmation: confirmation,
		engine:       engine,

		cl: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
	}
}

type (
	vkEvent struct {
		Type   string          `json:"type"`
		Secret string          `json:"secret"`
		Object json.RawMessage `json:"object"`
	}

	vkMessageNew struct {
		Message struct {
			FromID int64  `json:"from_id"`
			Text   string `json:"text"`

			Attachments []struct {
				Type string `json:"type"`
				Doc  struct {
					URL string `json:"url"`
				} `json:"doc"`
				Photo struct {
					Sizes []struct {
						URL string `json:"url"`
					} `json:"sizes"`
				} `json:"photo"`
			} `json:"attachments"`
		} `json:"message"`
	}
)

// Receive — обработчик Callback API.
func (v *VK) Receive(c *gin.Context) {
	var event vkEvent
	if err := c.BindJSON(&event); err != nil {
		logger.Warning("Error while receive vk event", err)
		c.Status(http.StatusBadRequest)
		return
	}

	if v.secret != "" && event.Secret != v.secret {
		c.Status(http.StatusForbidden)
		return
	}

	if event.Type == "confirmation" {
		c.String(http.StatusOK, v.confirmation)
		return
	}

	// ВК ждёт "ok" сразу, обработка — в фоне
	c.String(http.StatusOK, "ok")

	if event.Type != "message_new" {
		return
	}

	var payload vkMessageNew
	if err := json.Unmarshal(event.Object, &payload); err != nil {
		logger.Warning("Не корректное событие message_new", err)
		return
	}

	go v.handleMessage(context.Background(), payload)
}

func (v *VK) handleMessage(ctx context.Context, payload vkMessageNew) {
	userID := fmt.Sprintf("%s:%d", VKPrefix, payload.Message.FromID)
	text := strings.TrimSpace(payload.Message.Text)

	for _, attachment := range payload.Message.Attachments {
		fileURL := attachment.Doc.URL
		if attachment.Type == "photo" && len(attachment.Photo.Sizes) > 0 {
			fileURL = attachment.Photo.Sizes[len(attachment.Photo.Sizes)-1].URL
		}
		if fileURL == "" {
			continue
		}
		data, err := v.download(fileURL)
		if err != nil {
			logger.Warning("Не удалось скачать вложение из vk:", err)
			continue
		}
		_ = v.engine.HandleAttachment(ctx, userID, attachment.Type, data)
	}

	switch strings.ToLower(text) {
	case "":
		return
	case "/start", "start", "начать":
		_ = v.engine.Start(ctx, userID)
	default:
		_ = v.engine.HandleText(ctx, userID, text)
	}
}

// Prompt реализует session.Messenger для канала ВКонтакте.
func (v *VK) Prompt(ctx context.Context, userID, text string, options []string, allowBack bool) error {
	peer, err := strconv.ParseInt(strings.TrimPrefix(userID, VKPrefix+":"), 10, 64)
	if err != nil {
		return fmt.Errorf("не корректный vk id: %s", userID)
	}

	params := url.Values{}
	params.Set("user_id", strconv.FormatInt(peer, 10))
	params.Set("message", text)
	params.Set("random_id", strconv.FormatInt(rand.Int63(), 10))
	params.Set("access_token", v.token)
	params.Set("v", vkAPIVersion)

	if keyboard := vkKeyboard(options, allowBack); keyboard != "" {
		params.Set("keyboard", keyboard)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.vk.com/method/messages.send",
		strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.cl.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result struct {
		Error *struct {
			Code    int    `json:"error_code"`
			Message string `json:"error_msg"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err == nil && result.Error != nil {
		return fmt.Errorf("vk api ошибка %d: %s", result.Error.Code, result.Error.Message)
	}
	return nil
}

// vkKeyboard собирает json клавиатуры: по кнопке на вариант плюс
// кнопка «Назад».
func vkKeyboard(options []string, allowBack bool) string {
	if len(options) == 0 && !allowBack {
		return `{"buttons":[],"one_time":true}`
	}

	type action struct {
		Type  string `json:"type"`
		Label string `json:"label"`
	}
	type button struct {
		Action action `json:"action"`
		Color  string `json:"color,omitempty"`
	}

	var rows [][]button
	for _, option := range options {
		rows = append(rows, []button{{Action: action{Type: "text", Label: option}}})
	}
	if allowBack {
		rows = append(rows, []button{{Action: action{Type: "text", Label: "Назад"}, Color: "secondary"}})
	}

	data, err := json.Marshal(map[string]interface{}{
		"one_time": true,
		"buttons":  rows,
	})
	if err != nil {
		return ""
	}
	return string(data)
}

func (v *VK) download(fileURL string) ([]byte, error) {
	resp, err := v.cl.Get(fileURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vk вернул статус %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
