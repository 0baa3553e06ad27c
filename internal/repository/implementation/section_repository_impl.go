package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gamebook-engine/internal/model"
	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/pkg/store"
)

type SectionRepositoryImpl struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) contract.SectionRepository {
	return &SectionRepositoryImpl{db: db}
}

func (r *SectionRepositoryImpl) GetRaw(ctx context.Context, section int, kind store.ArtifactKind) (string, error) {
	var m model.Section
	err := r.db.WithContext(ctx).
		Where("number = ? AND kind = ?", section, string(kind)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", contract.ErrNotFound
		}
		return "", err
	}
	return m.RawText, nil
}

func (r *SectionRepositoryImpl) PutRaw(ctx context.Context, section int, kind store.ArtifactKind, text string) error {
	m := model.Section{
		Number:  section,
		Kind:    string(kind),
		RawText: text,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"raw_text", "updated_at"}),
		}).
		Create(&m).Error
}

func (r *SectionRepositoryImpl) GetArtifact(ctx context.Context, key store.SectionKey) (string, error) {
	var m model.Artifact
	err := r.db.WithContext(ctx).
		Where("section = ? AND kind = ?", key.Section, string(key.Kind)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", contract.ErrNotFound
		}
		return "", err
	}
	return m.Body, nil
}

func (r *SectionRepositoryImpl) PutArtifact(ctx context.Context, key store.SectionKey, value string) error {
	m := model.Artifact{
		Section: key.Section,
		Kind:    string(key.Kind),
		Body:    value,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(&m).Error
}

func (r *SectionRepositoryImpl) ArtifactExists(ctx context.Context, key store.SectionKey) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Artifact{}).
		Where("section = ? AND kind = ?", key.Section, string(key.Kind)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
