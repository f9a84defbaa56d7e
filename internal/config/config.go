package config

import (
	"os"

	"support-flow-bot/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
)

type (
	// Conf содержит настройки приложения.
	Conf struct {
		Server Server `yaml:"server"`

		Telegram Telegram `yaml:"telegram"`
		VK       VK       `yaml:"vk"`

		// файлы данных админ-панели
		SettingsFile  string `yaml:"settings_file"`
		LocationsFile string `yaml:"locations_file"`
		FieldsFile    string `yaml:"fields_file"`

		// каталог для вложений пользователей
		FilesDir string `yaml:"files_dir"`
		// журнал созданных заявок
		TicketsFile string `yaml:"tickets_file"`
		// команда выполняемая после регистрации заявки
		OnTicketCommand string `yaml:"on_ticket_command"`

		// потолок размера шкалы оценки
		MaxRatingScale int `yaml:"max_rating_scale"`

		Notices Notices `yaml:"notices"`

		RunInDebug bool `yaml:"-"`
	}

	Server struct {
		Listen string `yaml:"listen"`
	}

	Telegram struct {
		Token string `yaml:"token"`
	}

	VK struct {
		Token        string `yaml:"token"`
		Secret       string `yaml:"secret"`
		Confirmation string `yaml:"confirmation"`
		GroupID      int64  `yaml:"group_id"`
	}

	// Notices — тексты сообщений бота. Пустые значения добиваются
	// дефолтами при загрузке конфигурации.
	Notices struct {
		// приветствие при первом контакте
		Greeting string `yaml:"greeting"`
		// попытка начать вторую заявку
		SessionBusy string `yaml:"session_busy"`
		// сообщение без активной заявки
		NoSession string `yaml:"no_session"`
		// для шага не осталось доступных вариантов
		NoOptions string `yaml:"no_options"`
		// ответ не из списка вариантов
		InvalidOption string `yaml:"invalid_option"`
		// назад с первого шага
		NothingBack string `yaml:"nothing_back"`
		// подтверждение отмены
		Cancelled string `yaml:"cancelled"`
		// предложение использовать данные прошлой заявки
		ReusePrompt string `yaml:"reuse_prompt"`
		// непонятный ответ на вопрос да/нет
		ReuseRepeat string `yaml:"reuse_repeat"`
		// заявка создана; %s заменяется номером заявки, текст без
		// %s отправляется как есть
		TicketCreated string `yaml:"ticket_created"`
		// ошибка при регистрации заявки
		TicketFailed string `yaml:"ticket_failed"`
		// файл принят и приложен к заявке
		AttachmentSaved string `yaml:"attachment_saved"`
	}
)

// GetConfig загружает конфигурацию и добивает значения по умолчанию.
func GetConfig(configPath string, cnf *Conf) {
	logger.Debug("Loading configuration")

	input, err := os.Open(configPath)
	if err != nil {
		logger.Crit("Error while reading config!", err)
	}
	defer input.Close()

	if err = yaml.NewDecoder(input).Decode(cnf); err != nil {
		logger.Crit("Error while decoding config!", err)
	}

	setDefaults(cnf)
}

func setDefaults(cnf *Conf) {
	if cnf.Server.Listen == "" {
		cnf.Server.Listen = ":8080"
	}
	if cnf.SettingsFile == "" {
		cnf.SettingsFile = "./data/settings.json"
	}
	if cnf.LocationsFile == "" {
		cnf.LocationsFile = "./data/locations.json"
	}
	if cnf.FieldsFile == "" {
		cnf.FieldsFile = "./data/fields.json"
	}
	if cnf.FilesDir == "" {
		cnf.FilesDir = "./files"
	}
	if cnf.TicketsFile == "" {
		cnf.TicketsFile = "./data/tickets.jsonl"
	}
	if cnf.MaxRatingScale < 1 {
		cnf.MaxRatingScale = 5
	}

	setDefaultNotices(&cnf.Notices)
}

// DefaultNotices возвращает тексты сообщений по умолчанию.
func DefaultNotices() Notices {
	n := Notices{}
	setDefaultNotices(&n)
	return n
}

// настроить тексты сообщений по умолчанию которые не настроены
func setDefaultNotices(n *Notices) {
	if n.Greeting == "" {
		n.Greeting = "Здравствуйте! Чтобы оформить заявку, ответьте на несколько вопросов."
	}
	if n.SessionBusy == "" {
		n.SessionBusy = "У вас уже есть незавершённая заявка. Закончите её или отправьте /cancel"
	}
	if n.NoSession == "" {
		n.NoSession = "Сейчас нет активной заявки. Отправьте /start чтобы начать"
	}
	if n.NoOptions == "" {
		n.NoOptions = "Для этого шага нет доступных вариантов. Обратитесь к оператору"
	}
	if n.InvalidOption == "" {
		n.InvalidOption = "Пожалуйста, выберите вариант из списка"
	}
	if n.NothingBack == "" {
		n.NothingBack = "Это первый шаг, назад вернуться нельзя"
	}
	if n.Cancelled == "" {
		n.Cancelled = "Заявка отменена"
	}
	if n.ReusePrompt == "" {
		n.ReusePrompt = "Использовать данные прошлой заявки? (да/нет)"
	}
	if n.ReuseRepeat == "" {
		n.ReuseRepeat = "Ответьте «да» или «нет»"
	}
	if n.TicketCreated == "" {
		n.TicketCreated = "Заявка %s создана. Мы свяжемся с вами!"
	}
	if n.TicketFailed == "" {
		n.TicketFailed = "Не удалось зарегистрировать заявку. Попробуйте позже"
	}
	if n.AttachmentSaved == "" {
		n.AttachmentSaved = "Файл приложен к заявке"
	}
}

// Inject - Adds a conf to the Gin context
func Inject(key string, cnf *Conf) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cnf)
	}
}
