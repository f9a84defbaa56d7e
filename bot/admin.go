package bot

import (
	"net/http"

	"support-flow-bot/internal/logger"
	"support-flow-bot/internal/presets"
	"support-flow-bot/internal/settings"

	"github.com/gin-gonic/gin"
)

// InitRoutes регистрирует webhook ВКонтакте и API админ-панели.
func InitRoutes(app *gin.Engine, vk *VK) {
	logger.Info("Init receiving endpoints...")

	app.POST("/vk/callback/", vk.Receive)

	api := app.Group("/api")
	api.GET("/settings", getSettings)
	api.POST("/settings", saveSettings)
	api.GET("/presets", getPresets)
}

// getSettings отдаёт текущую модель в канонической сырой форме.
func getSettings(c *gin.Context) {
	manager := c.MustGet("settings").(*settings.Manager)
	c.JSON(http.StatusOK, manager.Model().Raw())
}

// saveSettings принимает произвольный json настроек, санитизирует и
// сохраняет каноническую форму. Ответ отражает результирующую модель,
// а не присланный документ.
func saveSettings(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.BindJSON(&raw); err != nil {
		logger.Warning("Не корректный json настроек из админки", err)
		c.Status(http.StatusBadRequest)
		return
	}

	manager := c.MustGet("settings").(*settings.Manager)
	model, err := manager.Save(raw)
	if err != nil {
		logger.Warning("Не удалось сохранить настройки", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, model.Raw())
}

// getPresets отдаёт собранный каталог вариантов.
func getPresets(c *gin.Context) {
	provider := c.MustGet("presets").(*presets.Provider)
	c.JSON(http.StatusOK, provider.Catalog())
}
