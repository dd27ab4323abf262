package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"lookbookapi/models"
	"lookbookapi/report"
	"lookbookapi/tasks"
)

type GenerateReportIn struct {
	ForceRegenerate bool `json:"force_regenerate"`
}

type ReportSettingsIn struct {
	MinLooks int `json:"min_looks" validate:"required,min=1,max=50"`
	MaxLooks int `json:"max_looks" validate:"required,min=1,max=50"`
}

type ReportsController struct {
	FirebaseApp *firebase.App
}

func (controller *ReportsController) ReportRoutes(g *echo.Group) {
	g.POST("/generate", controller.GenerateReport)
	g.GET("/latest", controller.LatestReport)
	g.GET("/profile", controller.StyleProfile)
}

func (controller *ReportsController) GenerateReport(c echo.Context) error {
	var req GenerateReportIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	// tell the user upfront when there is nothing to report on
	settingsProvider := report.GormSettingsProvider{DB: db}
	settings, err := settingsProvider.GetSettings()
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read report settings"})
	}
	var analyzedLookCount int64
	if err := db.Model(&models.Look{}).Where("owner_id = ? AND status = ? AND deleted = ?", user.ID, "analyzed", false).Count(&analyzedLookCount).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get look data"})
	}
	if analyzedLookCount < int64(settings.MinLooks) {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "not_enough_looks",
			"message": fmt.Sprintf("Analyze at least %d looks to unlock your style report", settings.MinLooks),
		})
	}

	task, err := tasks.NewStyleReportTask(user.ID, req.ForceRegenerate)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start report generation, please try again"})
	}
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("reports"))
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start report generation, please try again"})
	}
	fmt.Println("[Queue] Style report task submitted, User ID: ", user.ID, " Task ID: ", info.ID)

	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

func (controller *ReportsController) LatestReport(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	store := report.GormProfileStore{DB: db}
	reportData, err := store.GetLatestReport(user.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch report"})
	}
	if reportData == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No report generated yet"})
	}
	return c.JSON(http.StatusOK, reportData)
}

func (controller *ReportsController) StyleProfile(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	var row models.StyleProfile
	result := db.Where("owner_id = ?", user.ID).First(&row)
	if result.Error == gorm.ErrRecordNotFound {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No style profile yet"})
	}
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch style profile"})
	}
	var data report.StyleProfileData
	if err := json.Unmarshal([]byte(row.ProfileJSON), &data); err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Stored profile is unreadable"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"source":     row.Source,
		"updated_at": row.UpdatedAt,
		"profile":    data,
	})
}

// ReportSettingsController exposes superadmin tuning of report eligibility.
type ReportSettingsController struct{}

func (controller *ReportSettingsController) SettingsRoutes(g *echo.Group) {
	g.GET("", controller.GetSettings)
	g.PUT("", controller.UpdateSettings)
}

func (controller *ReportSettingsController) GetSettings(c echo.Context) error {
	db := c.Get("__db").(*gorm.DB)
	settingsProvider := report.GormSettingsProvider{DB: db}
	settings, err := settingsProvider.GetSettings()
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read report settings"})
	}
	return c.JSON(http.StatusOK, map[string]int{"min_looks": settings.MinLooks, "max_looks": settings.MaxLooks})
}

func (controller *ReportSettingsController) UpdateSettings(c echo.Context) error {
	var req ReportSettingsIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.MaxLooks < req.MinLooks {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "max_looks cannot be below min_looks"})
	}
	db := c.Get("__db").(*gorm.DB)

	var row models.ReportSettings
	result := db.First(&row)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		sentry.CaptureException(result.Error)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to read report settings"})
	}
	row.MinLooks = req.MinLooks
	row.MaxLooks = req.MaxLooks
	if err := db.Save(&row).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save report settings"})
	}
	fmt.Printf("[Settings] Report bounds updated: min %d max %d\n", row.MinLooks, row.MaxLooks)
	return c.JSON(http.StatusOK, map[string]int{"min_looks": row.MinLooks, "max_looks": row.MaxLooks})
}
