package controllers

import (
	"context"
	"log"
	"net/http"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"lookbookapi/models"
	"lookbookapi/services"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	db *gorm.DB,
	googleService services.GoogleServiceProvider,
	awsService services.AWSServiceProvider,
	urlCache services.URLCacheServiceProvider,
	firebaseApp *firebase.App,
	asynqClient *asynq.Client,
) *echo.Echo {

	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("Failed to initialize AWS provider: S3")
	}

	e := echo.New()
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	authGroup := e.Group("auth")
	authController := AuthController{Google: googleService, FirebaseApp: firebaseApp}
	authController.AuthRoutes(authGroup)

	webhooksGroup := e.Group("webhooks")
	webhooksController := WebhooksController{Google: googleService, FirebaseApp: firebaseApp}
	webhooksController.SetupRoutes(webhooksGroup)

	appGroup := e.Group("app", echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))))
	appGroup.Use(UserMiddleware)

	userDataController := UserDataController{FirebaseApp: firebaseApp}
	userDataGroup := appGroup.Group("/user")
	userDataController.UserDataRoutes(userDataGroup)

	looksController := LooksController{AWSService: awsService, FirebaseApp: firebaseApp, URLCache: urlCache}
	looksGroup := appGroup.Group("/looks")
	looksController.LookRoutes(looksGroup)

	reportsController := ReportsController{FirebaseApp: firebaseApp}
	reportsGroup := appGroup.Group("/reports")
	reportsController.ReportRoutes(reportsGroup)

	settingsController := ReportSettingsController{}
	settingsGroup := appGroup.Group("/admin/report-settings", SuperadminMiddleware)
	settingsController.SettingsRoutes(settingsGroup)

	return e
}
