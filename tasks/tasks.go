package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"lookbookapi/models"
	"lookbookapi/report"
	"lookbookapi/services"
)

const (
	TypeStyleReport   = "report:style"
	TypeReportRefresh = "report:refresh"
)

// freshReportWindow guards against accidental double taps on the generate
// button. force_regenerate bypasses it.
const freshReportWindow = 24 * time.Hour

type StyleReportPayload struct {
	UserID          uint `json:"user_id"`
	ForceRegenerate bool `json:"force_regenerate"`
}

// Client initializes an asynq client for enqueuing tasks
func NewClient() (*asynq.Client, error) {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}), nil
}

func NewStyleReportTask(userID uint, forceRegenerate bool) (*asynq.Task, error) {
	payload, err := json.Marshal(StyleReportPayload{UserID: userID, ForceRegenerate: forceRegenerate})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeStyleReport, payload), nil
}

func reportServiceFor(db *gorm.DB, generator services.StyleGenerator, user models.UserAccount) *report.Service {
	model := services.Flash25
	if user.EnforcedLLMModel != nil {
		model = services.LLMModelName(*user.EnforcedLLMModel)
		fmt.Printf("[Report: %v] [ENFORCE MODEL] Using enforced model: %s\n", user.ID, model.String())
	}
	return &report.Service{
		Looks:     &report.GormLookStore{DB: db},
		Profiles:  &report.GormProfileStore{DB: db},
		Settings:  &report.GormSettingsProvider{DB: db},
		Generator: generator,
		Model:     model,
	}
}

func hasFreshReport(db *gorm.DB, userID uint) bool {
	var latest models.StyleReport
	err := db.Where("owner_id = ?", userID).Order("created_at desc").First(&latest).Error
	if err != nil {
		return false
	}
	return time.Since(latest.CreatedAt) < freshReportWindow
}

// HandleStyleReportTask runs the report pipeline for one user.
func HandleStyleReportTask(ctx context.Context, t *asynq.Task, db *gorm.DB, generator services.StyleGenerator, fbApp *firebase.App) error {
	var payload StyleReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[Report: %v] Start Processing\n", payload.UserID)

	var user models.UserAccount
	res := db.First(&user, payload.UserID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving user for report %v", payload.UserID))
		return res.Error
	}

	if !payload.ForceRegenerate && hasFreshReport(db, user.ID) {
		fmt.Printf("[Report: %v] Fresh report already exists, skipping\n", payload.UserID)
		return nil
	}

	svc := reportServiceFor(db, generator, user)
	result, err := svc.Run(ctx, report.RunInput{UserID: user.ID, ForceRegenerate: payload.ForceRegenerate})
	if err != nil {
		fmt.Printf("[Report: %v] Error on running report pipeline: %v\n", payload.UserID, err)
		sentry.CaptureException(fmt.Errorf("[Report: %v] Error on running report pipeline: %v", payload.UserID, err))
		return err
	}
	if result.NotEnoughLooks {
		fmt.Printf("[Report: %v] Not enough analyzed looks: %s\n", payload.UserID, result.Message)
		return nil
	}

	fmt.Printf("[Report: %v] Report finished succesfully, version %d\n", payload.UserID, result.ReportData.Version)
	if user.ReceiveNotifications {
		fmt.Printf("[Report: %v] Sending notification to user %v\n", payload.UserID, user.ID)
		services.SendNotification(fbApp, db, user.ID, "Your Style Report is Ready", result.ReportData.Headline, map[string]string{"report_version": fmt.Sprintf("%d", result.ReportData.Version), "type": "style_report_ready"})
	} else {
		fmt.Printf("[Report: %v] ReceiveNotifications is false, not sending notification to user %v\n", payload.UserID, user.ID)
	}
	return nil
}

// ScheduledReportRefreshTask regenerates reports for all active users, run
// weekly from the scheduler.
func ScheduledReportRefreshTask(ctx context.Context, t *asynq.Task, db *gorm.DB, generator services.StyleGenerator, fbApp *firebase.App) error {
	fmt.Printf("[Report Refresh] Processing for all users\n")

	var users []models.UserAccount
	result := db.Where("banned = ?", false).Find(&users)
	if result.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Report Refresh] Error fetching users: %v", result.Error))
		return result.Error
	}

	fmt.Printf("[Report Refresh] Found %d users to refresh\n", len(users))

	for _, user := range users {
		svc := reportServiceFor(db, generator, user)
		runResult, err := svc.Run(ctx, report.RunInput{UserID: user.ID})
		if err != nil {
			fmt.Printf("[Report Refresh] Failed for user %d: %v\n", user.ID, err)
			sentry.CaptureException(fmt.Errorf("[Report Refresh] Failed for user %d: %v", user.ID, err))
			continue
		}
		if runResult.NotEnoughLooks {
			fmt.Printf("[Report Refresh] User %d has not enough looks, skipping\n", user.ID)
			continue
		}
		fmt.Printf("[Report Refresh] Refreshed report for user %d, version %d\n", user.ID, runResult.ReportData.Version)
		if user.ReceiveNotifications {
			services.SendNotification(fbApp, db, user.ID, "Your Style Report Got a Refresh", runResult.ReportData.Headline, map[string]string{"report_version": fmt.Sprintf("%d", runResult.ReportData.Version), "type": "style_report_ready"})
		}
		time.Sleep(1 * time.Second) // To avoid hitting rate limits
	}

	return nil
}
