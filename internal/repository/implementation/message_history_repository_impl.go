package implementation

import (
	"context"

	"messaging-be/internal/entity"
	"messaging-be/internal/mapper"
	"messaging-be/internal/model"
	"messaging-be/internal/repository/contract"
	"messaging-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageHistoryRepository(db *gorm.DB) contract.MessageHistoryRepository {
	return &MessageHistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageHistoryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageHistoryRepositoryImpl) Create(ctx context.Context, history *entity.MessageHistory) error {
	m := r.mapper.HistoryToModel(history)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*history = *r.mapper.HistoryToEntity(m)
	return nil
}

func (r *MessageHistoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageHistory, error) {
	var models []*model.MessageHistory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.HistoriesToEntities(models), nil
}

func (r *MessageHistoryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.MessageHistory{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageHistoryRepositoryImpl) DeleteByMessageIDs(ctx context.Context, messageIds []uuid.UUID) error {
	if len(messageIds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("message_id IN ?", messageIds).Delete(&model.MessageHistory{}).Error
}

// ClearEditor detaches a deleted user from the histories they authored on
// messages that survive the deletion.
func (r *MessageHistoryRepositoryImpl) ClearEditor(ctx context.Context, editorId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.MessageHistory{}).
		Where("edited_by = ?", editorId).
		Update("edited_by", nil).Error
}
