package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"lookbookapi/dbhelper"
	"lookbookapi/models"
	"lookbookapi/report"
	"lookbookapi/test"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func casualItems() []map[string]interface{} {
	return []map[string]interface{}{
		{"type": "clothing", "description": "navy crewneck", "color": "navy", "category": "knitwear"},
		{"type": "footwear", "desc": "white sneakers", "colour": "white", "item_category": "sneakers"},
	}
}

func TestHandleStyleReportTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)
	test.FakeAnalyzedLook(db, user, "look-one", casualItems())
	test.FakeAnalyzedLook(db, user, "look-two", casualItems())

	task, err := NewStyleReportTask(user.ID, false)
	require.NoError(t, err)

	err = HandleStyleReportTask(context.Background(), task, db, test.MockStyleGenerator{}, nil)
	require.NoError(t, err)

	var reportRow models.StyleReport
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&reportRow).Error)
	assert.Equal(t, 1, reportRow.Version)
	assert.Equal(t, 2, reportRow.SourceLookCount)
	require.NotNil(t, reportRow.LLMModel)
	assert.Equal(t, "gemini-2.5-flash", *reportRow.LLMModel)
	require.NotNil(t, reportRow.LLMTotalTokenCount)
	assert.Equal(t, int32(68), *reportRow.LLMTotalTokenCount)

	var reportData report.StyleReportData
	require.NoError(t, json.Unmarshal([]byte(reportRow.ReportJSON), &reportData))
	assert.Equal(t, "Your Minimal Navy Formula", reportData.Headline)
	assert.Len(t, reportData.ByLooks, 2)
	require.NotNil(t, reportData.Comprehensive)

	var profileRow models.StyleProfile
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&profileRow).Error)
	assert.Equal(t, report.ProfileSource, profileRow.Source)
	var profileData report.StyleProfileData
	require.NoError(t, json.Unmarshal([]byte(profileRow.ProfileJSON), &profileData))
	require.NotNil(t, profileData.ColorPalette)
	assert.Equal(t, "navy, white", *profileData.ColorPalette)
}

func TestHandleStyleReportTaskSkipsFreshReport(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)
	test.FakeAnalyzedLook(db, user, "look-one", casualItems())

	task, err := NewStyleReportTask(user.ID, false)
	require.NoError(t, err)
	require.NoError(t, HandleStyleReportTask(context.Background(), task, db, test.MockStyleGenerator{}, nil))
	// second run inside the freshness window is a no-op
	require.NoError(t, HandleStyleReportTask(context.Background(), task, db, test.MockStyleGenerator{}, nil))

	var reportCount int64
	db.Model(&models.StyleReport{}).Where("owner_id = ?", user.ID).Count(&reportCount)
	assert.Equal(t, int64(1), reportCount)
}

func TestHandleStyleReportTaskForceRegenerates(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)
	test.FakeAnalyzedLook(db, user, "look-one", casualItems())

	task, err := NewStyleReportTask(user.ID, false)
	require.NoError(t, err)
	require.NoError(t, HandleStyleReportTask(context.Background(), task, db, test.MockStyleGenerator{}, nil))

	forced, err := NewStyleReportTask(user.ID, true)
	require.NoError(t, err)
	require.NoError(t, HandleStyleReportTask(context.Background(), forced, db, test.MockStyleGenerator{}, nil))

	var latest models.StyleReport
	require.NoError(t, db.Where("owner_id = ?", user.ID).Order("version desc").First(&latest).Error)
	assert.Equal(t, 2, latest.Version)

	// the profile row is replaced, not duplicated
	var profileCount int64
	db.Model(&models.StyleProfile{}).Where("owner_id = ?", user.ID).Count(&profileCount)
	assert.Equal(t, int64(1), profileCount)
}

func TestHandleStyleReportTaskNotEnoughLooks(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	require.NoError(t, db.Create(&models.ReportSettings{MinLooks: 3, MaxLooks: 15}).Error)
	user := test.FakeUser(db)
	test.FakeAnalyzedLook(db, user, "look-one", casualItems())

	task, err := NewStyleReportTask(user.ID, false)
	require.NoError(t, err)
	require.NoError(t, HandleStyleReportTask(context.Background(), task, db, test.MockStyleGenerator{}, nil))

	var reportCount int64
	db.Model(&models.StyleReport{}).Where("owner_id = ?", user.ID).Count(&reportCount)
	assert.Equal(t, int64(0), reportCount)
	var profileCount int64
	db.Model(&models.StyleProfile{}).Where("owner_id = ?", user.ID).Count(&profileCount)
	assert.Equal(t, int64(0), profileCount)
}

func TestHandleStyleReportTaskDegradedGenerator(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)
	test.FakeAnalyzedLook(db, user, "look-one", casualItems())

	task, err := NewStyleReportTask(user.ID, false)
	require.NoError(t, err)
	require.NoError(t, HandleStyleReportTask(context.Background(), task, db, test.FailingStyleGenerator{}, nil))

	var reportRow models.StyleReport
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&reportRow).Error)
	assert.Nil(t, reportRow.LLMModel)
	var reportData report.StyleReportData
	require.NoError(t, json.Unmarshal([]byte(reportRow.ReportJSON), &reportData))
	assert.Equal(t, report.DefaultHeadline, reportData.Headline)
	assert.Nil(t, reportData.Comprehensive)
	assert.Len(t, reportData.ByLooks, 1)
}

func TestScheduledReportRefreshTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	userWithLooks := test.FakeUser(db)
	test.FakeAnalyzedLook(db, userWithLooks, "look-one", casualItems())
	userWithoutLooks := test.FakeUser(db)

	task := asynq.NewTask(TypeReportRefresh, []byte{})
	require.NoError(t, ScheduledReportRefreshTask(context.Background(), task, db, test.MockStyleGenerator{}, nil))

	var reportCount int64
	db.Model(&models.StyleReport{}).Where("owner_id = ?", userWithLooks.ID).Count(&reportCount)
	assert.Equal(t, int64(1), reportCount)
	db.Model(&models.StyleReport{}).Where("owner_id = ?", userWithoutLooks.ID).Count(&reportCount)
	assert.Equal(t, int64(0), reportCount)
}
