package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lookbookapi/models"
	"lookbookapi/services"
	"lookbookapi/test"
)

type memoryLookStore struct {
	looks []models.Look
}

func (s *memoryLookStore) ListLooksForReport(userID uint, maxCount int) ([]models.Look, int64, error) {
	total := int64(len(s.looks))
	if len(s.looks) > maxCount {
		return s.looks[:maxCount], total, nil
	}
	return s.looks, total, nil
}

type memoryProfileStore struct {
	profile       *StyleProfileData
	latest        *StyleReportData
	savedProfiles []StyleProfileData
	savedReports  []StyleReportData
	savedUsages   []*GenerationUsage
}

func (s *memoryProfileStore) GetProfile(userID uint) (*StyleProfileData, error) {
	return s.profile, nil
}

func (s *memoryProfileStore) WriteProfile(userID uint, source string, data StyleProfileData) error {
	s.savedProfiles = append(s.savedProfiles, data)
	return nil
}

func (s *memoryProfileStore) GetLatestReport(userID uint) (*StyleReportData, error) {
	return s.latest, nil
}

func (s *memoryProfileStore) SaveReport(userID uint, data StyleReportData, usage *GenerationUsage) error {
	s.savedReports = append(s.savedReports, data)
	s.savedUsages = append(s.savedUsages, usage)
	return nil
}

type fixedSettings struct {
	settings Settings
}

func (s fixedSettings) GetSettings() (Settings, error) {
	return s.settings, nil
}

func serviceFor(looks []models.Look, profiles *memoryProfileStore, settings Settings, generator services.StyleGenerator) *Service {
	return &Service{
		Looks:     &memoryLookStore{looks: looks},
		Profiles:  profiles,
		Settings:  fixedSettings{settings: settings},
		Generator: generator,
		Model:     services.Flash25,
	}
}

func reportLooks(t *testing.T, count int) []models.Look {
	looks := []models.Look{}
	for i := 0; i < count; i++ {
		looks = append(looks, analyzedLook(t, uint(i+1), models.LookAnalysis{
			Items: []map[string]interface{}{
				{"type": "clothing", "description": "navy crewneck", "color": "navy", "category": "knitwear"},
				{"type": "footwear", "description": "white sneakers", "color": "white", "category": "sneakers"},
			},
		}))
	}
	return looks
}

func TestRunRequiresUserID(t *testing.T) {
	svc := serviceFor(nil, &memoryProfileStore{}, Settings{MinLooks: 1, MaxLooks: 15}, test.MockStyleGenerator{})

	_, err := svc.Run(context.Background(), RunInput{})

	assert.Error(t, err)
}

func TestRunNotEnoughLooks(t *testing.T) {
	profiles := &memoryProfileStore{}
	svc := serviceFor(reportLooks(t, 2), profiles, Settings{MinLooks: 3, MaxLooks: 15}, test.MockStyleGenerator{})

	result, err := svc.Run(context.Background(), RunInput{UserID: 1})

	require.NoError(t, err)
	assert.True(t, result.NotEnoughLooks)
	assert.False(t, result.StyleProfileUpdated)
	assert.Contains(t, result.Message, "3")
	// an ineligible run writes nothing
	assert.Empty(t, profiles.savedProfiles)
	assert.Empty(t, profiles.savedReports)
}

func TestRunFullPipeline(t *testing.T) {
	profiles := &memoryProfileStore{}
	svc := serviceFor(reportLooks(t, 3), profiles, Settings{MinLooks: 1, MaxLooks: 15}, test.MockStyleGenerator{})

	result, err := svc.Run(context.Background(), RunInput{UserID: 1})

	require.NoError(t, err)
	assert.True(t, result.StyleProfileUpdated)
	require.NotNil(t, result.ReportData)
	assert.Equal(t, 1, result.ReportData.Version)
	assert.Equal(t, "Your Minimal Navy Formula", result.ReportData.Headline)
	assert.Len(t, result.ReportData.Sections, 2)
	assert.Len(t, result.ReportData.ByLooks, 3)
	assert.Equal(t, 6, result.ReportData.ByItems.Aggregates.TotalItems)

	require.NotNil(t, result.ReportData.Comprehensive)
	require.NotNil(t, result.ReportData.Comprehensive.Meta)
	assert.Equal(t, SchemaVersion, result.ReportData.Comprehensive.Meta.SchemaVersion)
	assert.Equal(t, 3, result.ReportData.Comprehensive.Meta.SourceLookCount)

	require.Len(t, profiles.savedProfiles, 1)
	saved := profiles.savedProfiles[0]
	// comprehensive dominant colors replace the flat palette
	require.NotNil(t, saved.ColorPalette)
	assert.Equal(t, "navy, white", *saved.ColorPalette)
	require.NotNil(t, saved.DominantSilhouettes)
	assert.Equal(t, "straight, relaxed", *saved.DominantSilhouettes)
	require.NotNil(t, saved.OneLiner)
	assert.Equal(t, "Effortless minimalist with a navy anchor", *saved.OneLiner)
	require.NotNil(t, saved.Comprehensive)

	require.Len(t, profiles.savedUsages, 1)
	usage := profiles.savedUsages[0]
	require.NotNil(t, usage)
	assert.Equal(t, services.Flash25.String(), usage.Model)
	assert.Equal(t, int32(30), usage.InputTokens)
	assert.Equal(t, int32(38), usage.OutputTokens)
	assert.Equal(t, int32(68), usage.TotalTokens)
}

func TestRunCapsLooksAtMax(t *testing.T) {
	profiles := &memoryProfileStore{}
	svc := serviceFor(reportLooks(t, 5), profiles, Settings{MinLooks: 1, MaxLooks: 3}, test.MockStyleGenerator{})

	result, err := svc.Run(context.Background(), RunInput{UserID: 1})

	require.NoError(t, err)
	assert.Len(t, result.ReportData.ByLooks, 3)
	assert.Equal(t, 3, result.ReportData.Comprehensive.Meta.SourceLookCount)
}

func TestRunSurvivesFailingGenerator(t *testing.T) {
	profiles := &memoryProfileStore{}
	svc := serviceFor(reportLooks(t, 2), profiles, Settings{MinLooks: 1, MaxLooks: 15}, test.FailingStyleGenerator{})

	result, err := svc.Run(context.Background(), RunInput{UserID: 1})

	require.NoError(t, err)
	assert.True(t, result.StyleProfileUpdated)
	assert.Equal(t, DefaultHeadline, result.ReportData.Headline)
	assert.Empty(t, result.ReportData.Sections)
	assert.Nil(t, result.ReportData.Comprehensive)
	// aggregates are still built from the looks themselves
	assert.Len(t, result.ReportData.ByLooks, 2)
	assert.Equal(t, 4, result.ReportData.ByItems.Aggregates.TotalItems)

	require.Len(t, profiles.savedUsages, 1)
	assert.Nil(t, profiles.savedUsages[0])
	require.Len(t, profiles.savedProfiles, 1)
	assert.Nil(t, profiles.savedProfiles[0].OneLiner)
}

func TestRunSurvivesGarbageGenerator(t *testing.T) {
	profiles := &memoryProfileStore{}
	svc := serviceFor(reportLooks(t, 2), profiles, Settings{MinLooks: 1, MaxLooks: 15}, test.GarbageStyleGenerator{})

	result, err := svc.Run(context.Background(), RunInput{UserID: 1})

	require.NoError(t, err)
	assert.Equal(t, DefaultHeadline, result.ReportData.Headline)
	assert.Nil(t, result.ReportData.Comprehensive)
	// the generator did answer, token spend is still recorded
	require.Len(t, profiles.savedUsages, 1)
	assert.NotNil(t, profiles.savedUsages[0])
}

func TestRunIncrementsVersion(t *testing.T) {
	profiles := &memoryProfileStore{latest: &StyleReportData{Version: 4}}
	svc := serviceFor(reportLooks(t, 2), profiles, Settings{MinLooks: 1, MaxLooks: 15}, test.MockStyleGenerator{})

	result, err := svc.Run(context.Background(), RunInput{UserID: 1})

	require.NoError(t, err)
	assert.Equal(t, 5, result.ReportData.Version)
}

func TestRunPrimaryOneLinerWinsOverTakeaway(t *testing.T) {
	existingOneLiner := "Existing one liner"
	profiles := &memoryProfileStore{profile: &StyleProfileData{OneLiner: &existingOneLiner}}
	svc := serviceFor(reportLooks(t, 2), profiles, Settings{MinLooks: 1, MaxLooks: 15}, test.MockStyleGenerator{})

	result, err := svc.Run(context.Background(), RunInput{UserID: 1})

	require.NoError(t, err)
	require.Len(t, profiles.savedProfiles, 1)
	// the fresh primary generation wins over the stored profile
	require.NotNil(t, profiles.savedProfiles[0].OneLiner)
	assert.Equal(t, "Effortless minimalist with a navy anchor", *profiles.savedProfiles[0].OneLiner)
	assert.True(t, result.StyleProfileUpdated)
}
