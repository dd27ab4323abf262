package report

import (
	"encoding/json"
	"fmt"

	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lookbookapi/models"
)

const (
	DefaultMinLooks = 1
	DefaultMaxLooks = 15
	settingsFloor   = 1
	settingsCeiling = 50
)

type LookStore interface {
	// ListLooksForReport returns up to maxCount newest eligible looks for the
	// user plus the total eligible count.
	ListLooksForReport(userID uint, maxCount int) ([]models.Look, int64, error)
}

type ProfileStore interface {
	GetProfile(userID uint) (*StyleProfileData, error)
	WriteProfile(userID uint, source string, data StyleProfileData) error
	GetLatestReport(userID uint) (*StyleReportData, error)
	SaveReport(userID uint, data StyleReportData, usage *GenerationUsage) error
}

type SettingsProvider interface {
	GetSettings() (Settings, error)
}

// GenerationUsage is the combined token spend of a run's LLM calls, stamped
// on the stored report row.
type GenerationUsage struct {
	Model        string
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type GormLookStore struct {
	DB *gorm.DB
}

func (s *GormLookStore) ListLooksForReport(userID uint, maxCount int) ([]models.Look, int64, error) {
	query := s.DB.Model(&models.Look{}).Where("owner_id = ? AND status = ? AND deleted = ?", userID, "analyzed", false)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var looks []models.Look
	err := s.DB.Where("owner_id = ? AND status = ? AND deleted = ?", userID, "analyzed", false).
		Order("created_at desc").Limit(maxCount).Find(&looks).Error
	if err != nil {
		return nil, 0, err
	}
	return looks, total, nil
}

type GormProfileStore struct {
	DB *gorm.DB
}

func (s *GormProfileStore) GetProfile(userID uint) (*StyleProfileData, error) {
	var row models.StyleProfile
	err := s.DB.Where("owner_id = ?", userID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var data StyleProfileData
	if err := json.Unmarshal([]byte(row.ProfileJSON), &data); err != nil {
		// an unreadable stored profile behaves like no profile at all
		fmt.Printf("[Profile: %v] Stored profile JSON is unreadable: %v\n", userID, err)
		sentry.CaptureException(err)
		return nil, nil
	}
	return &data, nil
}

func (s *GormProfileStore) WriteProfile(userID uint, source string, data StyleProfileData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	row := models.StyleProfile{
		OwnerID:     userID,
		Source:      source,
		ProfileJSON: string(payload),
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"source", "profile_json", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormProfileStore) GetLatestReport(userID uint) (*StyleReportData, error) {
	var row models.StyleReport
	err := s.DB.Where("owner_id = ?", userID).Order("version desc").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var data StyleReportData
	if err := json.Unmarshal([]byte(row.ReportJSON), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *GormProfileStore) SaveReport(userID uint, data StyleReportData, usage *GenerationUsage) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	row := models.StyleReport{
		OwnerID:         userID,
		Version:         data.Version,
		ReportJSON:      string(payload),
		SourceLookCount: len(data.ByLooks),
	}
	if usage != nil {
		row.LLMModel = &usage.Model
		row.LLMInputTokenCount = &usage.InputTokens
		row.LLMOutputTokenCount = &usage.OutputTokens
		row.LLMTotalTokenCount = &usage.TotalTokens
	}
	return s.DB.Create(&row).Error
}

type GormSettingsProvider struct {
	DB *gorm.DB
}

func clampLookBound(value, fallback int) int {
	if value < settingsFloor || value > settingsCeiling {
		return fallback
	}
	return value
}

func (s *GormSettingsProvider) GetSettings() (Settings, error) {
	settings := Settings{MinLooks: DefaultMinLooks, MaxLooks: DefaultMaxLooks}
	var row models.ReportSettings
	err := s.DB.First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return settings, nil
	}
	if err != nil {
		return settings, err
	}
	settings.MinLooks = clampLookBound(row.MinLooks, DefaultMinLooks)
	settings.MaxLooks = clampLookBound(row.MaxLooks, DefaultMaxLooks)
	if settings.MaxLooks < settings.MinLooks {
		settings.MaxLooks = settings.MinLooks
	}
	return settings, nil
}
