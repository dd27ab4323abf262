package controllers

import (
	"context"
	"fmt"
	"net/http"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"lookbookapi/models"
	"lookbookapi/services"
)

type AuthController struct {
	Google      services.GoogleServiceProvider
	FirebaseApp *firebase.App
}

func (m *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/google/v2", m.GoogleSignIn)
}

func (m *AuthController) GoogleSignIn(c echo.Context) (err error) {
	googleCreds := new(models.GoogleAuthSignIn)
	signUp := new(models.SignUpIn)
	if c.QueryParam("verify") == "true" {
		if err := c.Bind(googleCreds); err != nil {
			return err
		}
		if err = c.Validate(googleCreds); err != nil {
			return err
		}
	} else {
		if err := c.Bind(signUp); err != nil {
			return err
		}
		if err = c.Validate(signUp); err != nil {
			return err
		}
	}
	idToken := IfThenElse(googleCreds.IdToken == "", signUp.IdToken, googleCreds.IdToken).(string)
	platform := IfThenElse(googleCreds.Platform == "", signUp.Platform, googleCreds.Platform).(string)
	payload, err := m.Google.ValidateIdToken(context.Background(), idToken, os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	sub, ok := payload.Claims["sub"]
	if !ok {
		sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data %s", payload.Claims))
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	var googleId string = sub.(string)

	googleEmail, ok := payload.Claims["email"]
	if !ok {
		sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data email %s", payload.Claims))
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}

	pictureUrl, _ := payload.Claims["picture"].(string)
	googleName, _ := payload.Claims["name"].(string)

	db := c.Get("__db").(*gorm.DB)
	var user *models.UserAccount
	r := db.Where("google_id = ?", googleId).Limit(1).Find(&user)
	if r.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
	}

	if c.QueryParam("verify") == "true" {
		if r.RowsAffected > 0 {
			if user.Banned {
				return echo.ErrForbidden
			}
			refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
			if err != nil {
				fmt.Println(err)
				return echo.ErrInternalServerError
			}
			return c.JSON(http.StatusOK, map[string]interface{}{
				"id":    user.ID,
				"name":  user.Name,
				"email": googleEmail, "new": user.Status == "STARTED_AUTH", "avatar": user.AvatarURL,
				"access_token":  GenerateUserToken(fmt.Sprint(user.ID), c, 72),
				"refresh_token": refreshToken,
			})
		}
		// returning user that signed up before google id was stored
		r := db.Where("email = ?", googleEmail).Limit(1).Find(&user)
		if r.RowsAffected > 0 {
			user.AvatarURL = pictureUrl
			user.GoogleID = googleId
			user.Name = googleName
			user.LastIp = c.RealIP()
			user.Platform = models.Platform(platform)
			db.Save(&user)
		} else {
			user = &models.UserAccount{
				Name:      googleName,
				Email:     googleEmail.(string),
				GoogleID:  googleId,
				Platform:  models.Platform(platform),
				LastIp:    c.RealIP(),
				Status:    "STARTED_AUTH",
				AvatarURL: pictureUrl,
			}
			db.Create(&user)
		}
		refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
		if err != nil {
			fmt.Println(err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"email": googleEmail,
			"new":   r.RowsAffected == 0 || user.Status == "STARTED_AUTH", "avatar": user.AvatarURL,
			"name":          user.Name,
			"access_token":  GenerateUserToken(fmt.Sprint(user.ID), c, 72),
			"refresh_token": refreshToken,
		})
	}
	if r.RowsAffected > 0 {
		user.Name = signUp.Name
		user.Status = "FINISHED_AUTH"
		user.UTMSource = signUp.UTMSource
		db.Save(&user)
		fmt.Println("User onboarding finished google: ", googleEmail, googleId)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"id":           user.ID,
			"name":         user.Name,
			"email":        user.Email,
			"new":          true,
			"avatar":       user.AvatarURL,
			"access_token": GenerateUserToken(fmt.Sprint(user.ID), c, 72),
		})
	}
	c.Logger().Warnf("Error when finishing user creation, no user found in database %s %s", googleEmail, googleId)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Sorry, something wrong happened, please try again!"})
}
