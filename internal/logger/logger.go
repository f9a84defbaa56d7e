package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
)

var (
	isDebug = false

	CritColor    = color.RGB(255, 0, 0).SprintFunc()
	DebugColor   = color.RGB(255, 165, 0).SprintFunc()
	WarningColor = color.RGB(255, 255, 0).SprintFunc()
	EventColor   = color.RGB(0, 255, 0).SprintFunc()
)

type loggerConfig struct {
	Logging *struct {
		// Сохранять ли логи
		Enabled bool `yaml:"enabled"`
		// В какую папку сохранять, по умолчанию "./log"
		Directory string `yaml:"directory"`
		// Формат даты и времени в имени файла
		FilenameFormat string `yaml:"filename_format"`
	} `yaml:"logging"`

	// Отключить все цвета
	NoColor bool `yaml:"no_color"`
}

// InitLogger настраивает глобальный логгер приложения.
// Если файл настроек отсутствует — работаем с настройками по умолчанию.
func InitLogger(debug bool, configPath string) *os.File {
	isDebug = debug
	color.NoColor = false

	log.SetPrefix("[BOT] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lmsgprefix)

	input, err := os.Open(configPath)
	if err != nil {
		Info("Настройки для логов не найдены")
		return nil
	}
	defer input.Close()

	cnf := &loggerConfig{}
	if err = yaml.NewDecoder(input).Decode(cnf); err != nil {
		Warning("Ошибка загрузки настроек для логов", err)
		return nil
	}

	color.NoColor = cnf.NoColor

	if cnf.Logging != nil && cnf.Logging.Enabled {
		if cnf.Logging.Directory == "" {
			cnf.Logging.Directory = "./log"
		}
		if cnf.Logging.FilenameFormat == "" {
			cnf.Logging.FilenameFormat = "bot"
		}

		fileName := fmt.Sprintf("%s/%s.log", cnf.Logging.Directory, time.Now().Format(cnf.Logging.FilenameFormat))

		logFile, err := os.OpenFile(fileName, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			Warning("Ошибка связанная с файлом записи логов, в данный момент логи не сохраняются:", err)
			return nil
		}
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))

		return logFile
	}

	return nil
}

func Info(v ...interface{}) {
	log.Print("[INFO] ", fmt.Sprintln(v...))
}

func Event(v ...interface{}) {
	log.Print(EventColor("[EVENT] ", fmt.Sprintln(v...)))
}

func Warning(v ...interface{}) {
	log.Print(WarningColor("[WARNING] ", fmt.Sprintln(v...)))
}

func Debug(v ...interface{}) {
	if !isDebug {
		return
	}

	message := new(bytes.Buffer)
	for _, item := range v {
		if s, ok := item.(string); ok {
			_, _ = fmt.Fprintf(message, "%s ", s)
			continue
		}
		s, _ := json.MarshalIndent(item, "", " ")
		_, _ = fmt.Fprintf(message, "%s ", string(s))
	}

	log.Print(DebugColor("[DEBUG] ", message))
}

func Crit(v ...interface{}) {
	log.Print(CritColor("Critical error: ", fmt.Sprintln(v...)))
	os.Exit(1)
}
