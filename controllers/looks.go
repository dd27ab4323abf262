package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"lookbookapi/models"
	"lookbookapi/services"
)

const freePlanLookLimit = 10

type CreateLookIn struct {
	Name     string   `json:"name" validate:"omitempty,max=100"`
	FileName *string  `json:"file_name" validate:"required,max=200"`
	Vibe     *string  `json:"vibe" validate:"omitempty,max=100"`
	Occasion *string  `json:"occasion" validate:"omitempty,max=100"`
	Tags     []string `json:"tags" validate:"omitempty,max=20"`
}

// LookAnalysisIn is the callback payload posted by the external look
// analyzer once it finished with an uploaded image.
type LookAnalysisIn struct {
	Items        []map[string]interface{} `json:"items"`
	Comment      string                   `json:"comment"`
	Tags         []string                 `json:"tags"`
	Suggestions  []string                 `json:"suggestions"`
	Model        *string                  `json:"model"`
	ErrorMessage *string                  `json:"error_message"`
}

type LookResponse struct {
	ID                   uint     `json:"id"`
	Name                 string   `json:"name"`
	Vibe                 *string  `json:"vibe"`
	Occasion             *string  `json:"occasion"`
	Tags                 []string `json:"tags"`
	Status               string   `json:"status"`
	Uri                  *string  `json:"uri,omitempty"`
	AnalysisErrorMessage *string  `json:"analysis_error_message,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

type LookCreatedResponse struct {
	Look          LookResponse `json:"look"`
	FileUploadUrl string       `json:"file_upload_url"`
}

type LooksListResponse struct {
	Looks []LookResponse `json:"looks"`
}

type LooksController struct {
	AWSService  services.AWSServiceProvider
	FirebaseApp *firebase.App
	URLCache    services.URLCacheServiceProvider
}

func (controller *LooksController) LookRoutes(g *echo.Group) {
	g.POST("/create", controller.CreateLook)
	g.GET("/list", controller.ListLooks)
	g.POST("/:lookId/uploaded", controller.MarkUploaded)
	g.POST("/:lookId/analysis", controller.IngestAnalysis)
	g.DELETE("/:lookId", controller.DeleteLook)
}

func (controller *LooksController) CreateLook(c echo.Context) error {
	var req CreateLookIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	if req.FileName == nil || *req.FileName == "" {
		sentry.CaptureException(fmt.Errorf("Image was not provided when creating look %s, user %v", req.Name, user.ID))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Sorry, it seems image was not provided, please try again"})
	}

	if user.Subscription == nil || *user.Subscription == models.SubscriptionFree {
		var totalLookCount int64
		if err := db.Model(&models.Look{}).Where("owner_id = ? AND deleted = ?", user.ID, false).Count(&totalLookCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get look data"})
		}
		fmt.Printf("[User %v] Free plan, look count: %v\n", user.ID, totalLookCount)
		if totalLookCount >= freePlanLookLimit {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the free limit of total %v looks, please subscribe", freePlanLookLimit)})
		}
	}

	if user.EnforcedDailyLookLimit != nil {
		var dailyLookCount int64
		today := time.Now().UTC().Format("2006-01-02")
		if err := db.Model(&models.Look{}).Where("owner_id = ? AND DATE(created_at) = ?", user.ID, today).Count(&dailyLookCount).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get look data"})
		}
		fmt.Printf("[User %v] Enforced daily limit, look count: %v\n", user.ID, dailyLookCount)
		if dailyLookCount >= int64(*user.EnforcedDailyLookLimit) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("You have reached the limit of %v daily looks. Please wait for the next day.", *user.EnforcedDailyLookLimit)})
		}
	}

	look := models.Look{
		Name:     req.Name,
		OwnerID:  user.ID,
		Vibe:     req.Vibe,
		Occasion: req.Occasion,
		Tags:     pq.StringArray(req.Tags),
		Status:   "draft",
	}
	var bucketName = services.GetEnv("R2_BUCKET_NAME", "")
	safeFileName := fmt.Sprintf("looks/%s", *req.FileName)

	uploadUrl, presignErr := controller.AWSService.PresignLink(context.Background(), bucketName, safeFileName)
	look.ImageURL = &safeFileName
	if presignErr != nil {
		log.Printf("Unable to presign generate for %s!, %s", look.Name, presignErr)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Error while creating look with attachment",
		})
	}
	if err := db.Create(&look).Error; err != nil {
		sentry.CaptureException(err)
		return err
	}

	response := LookCreatedResponse{
		Look:          lookResponseFor(look, nil),
		FileUploadUrl: uploadUrl,
	}
	return c.JSON(http.StatusCreated, response)
}

func (controller *LooksController) MarkUploaded(c echo.Context) error {
	look, httpErr := controller.ownedLook(c)
	if httpErr != nil {
		return httpErr
	}
	db := c.Get("__db").(*gorm.DB)

	if look.Status != "draft" {
		return c.JSON(http.StatusConflict, map[string]string{"error": fmt.Sprintf("Look is already %s", look.Status)})
	}
	look.Status = "uploaded"
	if err := db.Save(&look).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update look"})
	}
	fmt.Printf("[Look: %v] Marked as uploaded\n", look.ID)
	return c.JSON(http.StatusOK, lookResponseFor(*look, nil))
}

func (controller *LooksController) IngestAnalysis(c echo.Context) error {
	look, httpErr := controller.ownedLook(c)
	if httpErr != nil {
		return httpErr
	}
	db := c.Get("__db").(*gorm.DB)

	var req LookAnalysisIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.ErrorMessage != nil && *req.ErrorMessage != "" {
		look.Status = "failed"
		look.AnalysisErrorMessage = req.ErrorMessage
		if err := db.Save(&look).Error; err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update look"})
		}
		fmt.Printf("[Look: %v] Analysis failed: %s\n", look.ID, *req.ErrorMessage)
		return c.JSON(http.StatusOK, lookResponseFor(*look, nil))
	}

	analysis := models.LookAnalysis{
		Items:       req.Items,
		Comment:     req.Comment,
		Tags:        req.Tags,
		Suggestions: req.Suggestions,
	}
	analysisBytes, err := json.Marshal(analysis)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid analysis payload"})
	}
	analysisJSON := string(analysisBytes)

	look.AnalysisJSON = &analysisJSON
	look.AnalysisModel = req.Model
	look.AnalysisErrorMessage = nil
	look.Status = "analyzed"
	if len(req.Tags) > 0 {
		look.Tags = pq.StringArray(req.Tags)
	}
	if err := db.Save(&look).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save analysis"})
	}
	fmt.Printf("[Look: %v] Analysis ingested, %d items\n", look.ID, len(req.Items))
	return c.JSON(http.StatusOK, lookResponseFor(*look, nil))
}

func (controller *LooksController) DeleteLook(c echo.Context) error {
	look, httpErr := controller.ownedLook(c)
	if httpErr != nil {
		return httpErr
	}
	db := c.Get("__db").(*gorm.DB)

	look.Deleted = true
	if err := db.Save(&look).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete look"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}

// ownedLook resolves the path look id to a non-deleted look of the current
// user, or an HTTP error response.
func (controller *LooksController) ownedLook(c echo.Context) (*models.Look, error) {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return nil, c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	var lookId uint
	if err := echo.PathParamsBinder(c).Uint("lookId", &lookId).BindError(); err != nil {
		return nil, echo.ErrBadRequest
	}
	var look models.Look
	result := db.Where("id = ? AND owner_id = ? AND deleted = ?", lookId, user.ID, false).First(&look)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, echo.ErrNotFound
	}
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return nil, echo.ErrInternalServerError
	}
	return &look, nil
}

func lookResponseFor(look models.Look, uri *string) LookResponse {
	return LookResponse{
		ID:                   look.ID,
		Name:                 look.Name,
		Vibe:                 look.Vibe,
		Occasion:             look.Occasion,
		Tags:                 look.Tags,
		Status:               look.Status,
		Uri:                  uri,
		AnalysisErrorMessage: look.AnalysisErrorMessage,
		CreatedAt:            look.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:            look.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// populatePresignedLookImages enriches looks with presigned image URLs
// concurrently, with a direct R2 fallback when the cache system itself fails.
func (controller *LooksController) populatePresignedLookImages(ctx context.Context, looks []models.Look) []LookResponse {
	if len(looks) == 0 {
		return []LookResponse{}
	}

	var wg sync.WaitGroup
	processedResponses := make([]LookResponse, len(looks))
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")

	for i, lookItem := range looks {
		wg.Add(1)
		go func(index int, item models.Look) {
			defer wg.Done()

			var imageUrl string
			if item.ImageURL != nil && *item.ImageURL != "" {
				objectKey := *item.ImageURL

				url, err := controller.URLCache.GetReadURL(ctx, objectKey)
				if err == nil {
					imageUrl = url
				} else {
					log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)

					sentry.WithScope(func(scope *sentry.Scope) {
						scope.SetTag("failure_type", "cache_system")
						scope.SetExtra("objectKey", objectKey)
						sentry.CaptureException(err)
					})

					fallbackUrl, fallbackErr := controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
					if fallbackErr != nil {
						log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
						sentry.CaptureException(fallbackErr)
					} else {
						imageUrl = fallbackUrl
					}
				}
			}
			// a blank URL means every resolution path failed, clients get null
			var uri *string
			if imageUrl != "" {
				uri = &imageUrl
			}
			processedResponses[index] = lookResponseFor(item, uri)
		}(i, lookItem)
	}

	wg.Wait()
	return processedResponses
}

func (controller *LooksController) ListLooks(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var looks []models.Look
	if err := db.Where("owner_id = ? AND deleted = ?", user.ID, false).Order("created_at desc").Find(&looks).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch looks"})
	}

	processedResponses := controller.populatePresignedLookImages(c.Request().Context(), looks)
	return c.JSON(http.StatusOK, LooksListResponse{Looks: processedResponses})
}
