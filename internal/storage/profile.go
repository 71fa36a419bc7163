package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/easeaico/senior-acido/internal/memory"
	"github.com/easeaico/senior-acido/internal/types"
)

// profileModel maps to the profiles table.
type profileModel struct {
	UserID           string `gorm:"primaryKey;size:64"`
	EducationSummary string `gorm:"type:text;not null;default:''"`
	InterestsSummary string `gorm:"type:text;not null;default:''"`
	PrivacyNotes     string `gorm:"type:text;not null;default:''"`
	UpdatedAt        time.Time
}

func (profileModel) TableName() string {
	return "profiles"
}

// profileRepo accesses the profile row.
type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepo returns a ProfileRepo.
func NewProfileRepo(db *gorm.DB) memory.ProfileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetProfile(ctx context.Context, userID string) (types.Profile, error) {
	var record profileModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Profile{}, types.ErrNotFound
	}
	if err != nil {
		return types.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return profileFromModel(record), nil
}

// UpdateProfileField writes a single column, creating the row on first use.
func (r *profileRepo) UpdateProfileField(ctx context.Context, userID string, field types.ProfileField, value string) error {
	if !validField(field) {
		return fmt.Errorf("unknown profile field %q", field)
	}

	result := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			string(field): value,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	record := profileModel{UserID: userID}
	setField(&record, field, value)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func validField(field types.ProfileField) bool {
	switch field {
	case types.FieldEducation, types.FieldInterests, types.FieldPrivacy:
		return true
	default:
		return false
	}
}

func setField(record *profileModel, field types.ProfileField, value string) {
	switch field {
	case types.FieldEducation:
		record.EducationSummary = value
	case types.FieldInterests:
		record.InterestsSummary = value
	case types.FieldPrivacy:
		record.PrivacyNotes = value
	}
}

func profileFromModel(model profileModel) types.Profile {
	return types.Profile{
		UserID:           model.UserID,
		EducationSummary: model.EducationSummary,
		InterestsSummary: model.InterestsSummary,
		PrivacyNotes:     model.PrivacyNotes,
		UpdatedAt:        model.UpdatedAt,
	}
}
