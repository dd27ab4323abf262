package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"lookbookapi/dbhelper"
	"lookbookapi/models"
	"lookbookapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testServer(db *gorm.DB) *echo.Echo {
	return SetupServer(db, test.GoogleServiceMock{}, test.AWSProviderMock{}, test.URLCacheMock{MockUrl: "https://cachedurl.com/image.jpg"}, nil, nil)
}

func TestCreateLookOk(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	reqBody := CreateLookIn{
		Name:     "Friday look",
		FileName: stringPtr("friday.jpg"),
		Vibe:     stringPtr("casual"),
		Tags:     []string{"weekend"},
	}

	req := test.NewJSONAuthRequest("POST", "/app/looks/create", strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, "Expected status code 201 Created, got %d: %s", rec.Code, rec.Body.String())

	var response LookCreatedResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, reqBody.Name, response.Look.Name)
	assert.Equal(t, "draft", response.Look.Status)
	assert.Equal(t, "https://fakebucketurl.com/looks/friday.jpg", response.FileUploadUrl)

	var stored models.Look
	require.NoError(t, db.First(&stored, response.Look.ID).Error)
	require.NotNil(t, stored.ImageURL)
	assert.Equal(t, "looks/friday.jpg", *stored.ImageURL)
}

func TestCreateLookMissingFileName(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	reqBody := CreateLookIn{Name: "No image"}

	req := test.NewJSONAuthRequest("POST", "/app/looks/create", strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLookFreePlanLimit(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	for i := 0; i < freePlanLookLimit; i++ {
		require.NoError(t, db.Create(&models.Look{
			Name:    fmt.Sprintf("look-%d", i),
			OwnerID: user.ID,
			Status:  "draft",
		}).Error)
	}

	reqBody := CreateLookIn{Name: "One too many", FileName: stringPtr("extra.jpg")}
	req := test.NewJSONAuthRequest("POST", "/app/looks/create", strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Contains(t, response["error"], "free limit")
}

func TestCreateLookUnauthorized(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)

	reqBody := CreateLookIn{Name: "Look", FileName: stringPtr("look.jpg")}
	req := test.NewJSONAuthRequest("POST", "/app/looks/create", "", reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMarkUploadedTransition(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	look := models.Look{Name: "Draft look", OwnerID: user.ID, Status: "draft"}
	require.NoError(t, db.Create(&look).Error)

	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/app/looks/%v/uploaded", look.ID), strconv.FormatUint(uint64(user.ID), 10), "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response LookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "uploaded", response.Status)

	// a second transition attempt conflicts
	req = test.NewJSONAuthRequest("POST", fmt.Sprintf("/app/looks/%v/uploaded", look.ID), strconv.FormatUint(uint64(user.ID), 10), "")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIngestAnalysisOk(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	look := models.Look{Name: "Uploaded look", OwnerID: user.ID, Status: "uploaded"}
	require.NoError(t, db.Create(&look).Error)

	reqBody := LookAnalysisIn{
		Items: []map[string]interface{}{
			{"type": "clothing", "description": "navy crewneck", "color": "navy"},
			{"item_type": "footwear", "desc": "white sneakers", "colour": "white"},
		},
		Comment: "Clean casual pairing",
		Tags:    []string{"casual", "minimal"},
		Model:   stringPtr("analyzer-v2"),
	}

	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/app/looks/%v/analysis", look.ID), strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "Expected status code 200 OK, got %d: %s", rec.Code, rec.Body.String())

	var stored models.Look
	require.NoError(t, db.First(&stored, look.ID).Error)
	assert.Equal(t, "analyzed", stored.Status)
	require.NotNil(t, stored.AnalysisModel)
	assert.Equal(t, "analyzer-v2", *stored.AnalysisModel)
	assert.Equal(t, []string{"casual", "minimal"}, []string(stored.Tags))

	analysis := stored.Analysis()
	require.NotNil(t, analysis)
	assert.Len(t, analysis.Items, 2)
	assert.Equal(t, "Clean casual pairing", analysis.Comment)
}

func TestIngestAnalysisFailure(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	look := models.Look{Name: "Uploaded look", OwnerID: user.ID, Status: "uploaded"}
	require.NoError(t, db.Create(&look).Error)

	reqBody := LookAnalysisIn{ErrorMessage: stringPtr("image too dark")}
	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/app/looks/%v/analysis", look.ID), strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Look
	require.NoError(t, db.First(&stored, look.ID).Error)
	assert.Equal(t, "failed", stored.Status)
	require.NotNil(t, stored.AnalysisErrorMessage)
	assert.Equal(t, "image too dark", *stored.AnalysisErrorMessage)
	assert.Nil(t, stored.Analysis())
}

func TestListLooksOk(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	test.FakeAnalyzedLook(db, user, "look-one", []map[string]interface{}{
		{"type": "clothing", "description": "navy crewneck"},
	})
	deletedLook := models.Look{Name: "gone", OwnerID: user.ID, Status: "draft", Deleted: true}
	require.NoError(t, db.Create(&deletedLook).Error)

	req := test.NewJSONAuthRequest("GET", "/app/looks/list", strconv.FormatUint(uint64(user.ID), 10), "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response LooksListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Looks, 1)
	assert.Equal(t, "look-one", response.Looks[0].Name)
	require.NotNil(t, response.Looks[0].Uri)
	assert.Equal(t, "https://cachedurl.com/image.jpg", *response.Looks[0].Uri)
}

func TestDeleteLook(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)

	look := models.Look{Name: "To delete", OwnerID: user.ID, Status: "draft"}
	require.NoError(t, db.Create(&look).Error)

	req := test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/app/looks/%v", look.ID), strconv.FormatUint(uint64(user.ID), 10), "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stored models.Look
	require.NoError(t, db.First(&stored, look.ID).Error)
	assert.True(t, stored.Deleted)

	// deleted looks behave like they never existed
	req = test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/app/looks/%v", look.ID), strconv.FormatUint(uint64(user.ID), 10), "")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookAccessIsScopedToOwner(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	owner := test.FakeUser(db)
	intruder := test.FakeUser(db)

	look := models.Look{Name: "Private look", OwnerID: owner.ID, Status: "draft"}
	require.NoError(t, db.Create(&look).Error)

	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/app/looks/%v/uploaded", look.ID), strconv.FormatUint(uint64(intruder.ID), 10), "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateLookProSubscriptionSkipsFreeLimit(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := testServer(db)
	user := test.FakeUser(db)
	user.Subscription = test.NewRefString(models.SubscriptionPro)
	require.NoError(t, db.Save(&user).Error)

	for i := 0; i < freePlanLookLimit; i++ {
		require.NoError(t, db.Create(&models.Look{
			Name:    fmt.Sprintf("look-%d", i),
			OwnerID: user.ID,
			Status:  "draft",
		}).Error)
	}

	reqBody := CreateLookIn{Name: "Above the cap", FileName: stringPtr("eleventh.jpg")}
	req := test.NewJSONAuthRequest("POST", "/app/looks/create", strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

type failingURLCacheMock struct{}

func (cache failingURLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	return "", fmt.Errorf("cache backend down")
}

type failingReadURLAWSMock struct {
	test.AWSProviderMock
}

func (awsService failingReadURLAWSMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return "", fmt.Errorf("r2 unavailable")
}

func TestListLooksImageResolutionFailureYieldsNullUri(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, failingReadURLAWSMock{}, failingURLCacheMock{}, nil, nil)
	user := test.FakeUser(db)

	test.FakeAnalyzedLook(db, user, "look-one", []map[string]interface{}{
		{"type": "clothing", "description": "navy crewneck"},
	})

	req := test.NewJSONAuthRequest("GET", "/app/looks/list", strconv.FormatUint(uint64(user.ID), 10), "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response LooksListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Looks, 1)
	assert.Nil(t, response.Looks[0].Uri)
}

func stringPtr(s string) *string {
	return &s
}
