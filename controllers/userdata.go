package controllers

import (
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"lookbookapi/models"
)

type UserDataController struct {
	FirebaseApp *firebase.App
}

func (controller *UserDataController) UserDataRoutes(g *echo.Group) {
	g.GET("/me", controller.Me)
	g.POST("/push-token", controller.RegisterPushToken)
	g.PUT("/settings", controller.UpdateSettings)
}

func (controller *UserDataController) Me(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	var analyzedLookCount int64
	if err := db.Model(&models.Look{}).Where("owner_id = ? AND status = ? AND deleted = ?", user.ID, "analyzed", false).Count(&analyzedLookCount).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch profile data"})
	}

	return c.JSON(http.StatusOK, models.UserMeInfoOut{
		Id:                   fmt.Sprint(user.ID),
		Name:                 user.Name,
		Email:                user.Email,
		AvatarURL:            user.AvatarURL,
		Subscription:         user.Subscription,
		ReceiveNotifications: user.ReceiveNotifications,
		AnalyzedLookCount:    analyzedLookCount,
	})
}

func (controller *UserDataController) RegisterPushToken(c echo.Context) error {
	var req models.UserPushIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Token is required"})
	}

	// deactivate older registrations of the same token
	db.Model(&models.UserPushToken{}).Where("token = ?", req.Token).Update("active", false)

	pushToken := models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      models.Platform(req.Platform),
		Token:         req.Token,
		Active:        true,
	}
	if err := db.Create(&pushToken).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save push token"})
	}
	fmt.Printf("[User %v] Registered push token %v\n", user.ID, pushToken.ID)
	return c.JSON(http.StatusCreated, map[string]string{"message": "ok"})
}

func (controller *UserDataController) UpdateSettings(c echo.Context) error {
	var req models.UserSettingsIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	user.ReceiveNotifications = req.ReceiveNotifications
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update settings"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"receive_notifications": user.ReceiveNotifications})
}
