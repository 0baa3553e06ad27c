package implementation

import (
	"context"

	"gorm.io/gorm"

	"gamebook-engine/internal/mapper"
	"gamebook-engine/internal/model"
	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/pkg/store"
)

type TraceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TraceMapper
}

func NewTraceRepository(db *gorm.DB) contract.TraceRepository {
	return &TraceRepositoryImpl{
		db:     db,
		mapper: mapper.NewTraceMapper(),
	}
}

func (r *TraceRepositoryImpl) Append(ctx context.Context, entry *store.TraceEntry) error {
	m := r.mapper.ToModel(entry)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *TraceRepositoryImpl) Range(ctx context.Context, sinceSeq uint64, limit int) ([]*store.TraceEntry, error) {
	query := r.db.WithContext(ctx).Model(&model.TraceEntry{}).
		Where("seq > ?", sinceSeq).
		Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []*model.TraceEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*store.TraceEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.mapper.ToEntry(row))
	}
	return out, nil
}

func (r *TraceRepositoryImpl) TrimBefore(ctx context.Context, minSeq uint64) error {
	return r.db.WithContext(ctx).
		Where("seq < ?", minSeq).
		Delete(&model.TraceEntry{}).Error
}

func (r *TraceRepositoryImpl) LastSeq(ctx context.Context) (uint64, error) {
	var row model.TraceEntry
	err := r.db.WithContext(ctx).Order("seq DESC").First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Seq, nil
}
