package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"support-flow-bot/bot"
	"support-flow-bot/internal/config"
	"support-flow-bot/internal/logger"
	"support-flow-bot/internal/presets"
	"support-flow-bot/internal/session"
	"support-flow-bot/internal/settings"
	"support-flow-bot/internal/ticket"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
	"gopkg.in/fsnotify.v1"
)

func main() {
	var (
		cnf = &config.Conf{}

		configFile = flag.String("config", "./config/config.yml", "Usage: -config=<config_file>")
		logConfig  = flag.String("log", "./config/log.yml", "Usage: -log=<log_config_file>")
		debug      = flag.Bool("debug", false, "Print debug information on stderr")
	)

	flag.Parse()

	config.GetConfig(*configFile, cnf)
	cnf.RunInDebug = *debug

	logger.InitLogger(*debug, *logConfig)
	logger.Info("Application starting...")

	if *debug {
		logger.Debug("Config:", cnf)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cache, err := bigcache.NewBigCache(bigcache.DefaultConfig(24 * time.Hour))
	if err != nil {
		logger.Crit(err)
	}

	presetProvider := presets.NewProvider(
		presets.FileSource{Path: cnf.LocationsFile},
		presets.FileSource{Path: cnf.FieldsFile},
	)
	settingsManager := settings.NewManager(settings.NewFileStore(cnf.SettingsFile), presetProvider, cnf.MaxRatingScale)

	finalizer := ticket.NewFinalizer(cnf.TicketsFile, cnf.OnTicketCommand, cache)

	mux := bot.NewMux()
	engine := session.NewEngine(session.Deps{
		Sessions:    session.NewManager(),
		Settings:    settingsManager,
		Presets:     presetProvider,
		Messenger:   mux,
		Tickets:     finalizer,
		LastAnswers: finalizer,
		Attachments: ticket.NewDirSink(cnf.FilesDir),
		Notices:     cnf.Notices,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cnf.Telegram.Token != "" {
		tg, err := bot.NewTelegram(cnf.Telegram.Token, engine)
		if err != nil {
			logger.Crit(err)
		}
		mux.Register(bot.TelegramPrefix, tg)
		go tg.Run(ctx)
	}

	vk := bot.NewVK(cnf.VK.Token, cnf.VK.Secret, cnf.VK.Confirmation, engine)
	if cnf.VK.Token != "" {
		mux.Register(bot.VKPrefix, vk)
	}

	app := gin.Default()
	app.Use(
		config.Inject("cnf", cnf),
		injectSettings(settingsManager),
		injectPresets(presetProvider),
	)

	bot.InitRoutes(app, vk)

	srv := &http.Server{
		Addr:    cnf.Server.Listen,
		Handler: app,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	// Следим за изменениями файлов данных админки.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Crit(err)
	}
	defer watcher.Close()
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write ||
					event.Op&fsnotify.Create == fsnotify.Create ||
					event.Op&fsnotify.Rename == fsnotify.Rename {
					logger.Info("Изменён файл данных, обновляем модель:", event.Name)
					presetProvider.Invalidate()
					settingsManager.Invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warning("Ошибка наблюдателя файлов:", err)
			}
		}
	}()

	// триггер на каталоги где лежат файлы данных
	watched := map[string]bool{}
	for _, file := range []string{cnf.SettingsFile, cnf.LocationsFile, cnf.FieldsFile} {
		dir := filepath.Dir(file)
		if watched[dir] {
			continue
		}
		watched[dir] = true
		if err := watcher.Add(dir); err != nil {
			logger.Warning("Не удалось следить за каталогом:", dir, err)
		}
	}

	logger.Info("Application started")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signals
	logger.Info("Catch OS signal! Exiting...", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("App forced to shutdown:", err)
	}

	logger.Info("Application stopped correctly!")
}

func injectSettings(manager *settings.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("settings", manager)
	}
}

func injectPresets(provider *presets.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("presets", provider)
	}
}
