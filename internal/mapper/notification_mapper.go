package mapper

import (
	"encoding/json"

	"messaging-be/internal/entity"
	"messaging-be/internal/model"

	"gorm.io/datatypes"
)

type NotificationMapper struct{}

func NewNotificationMapper() *NotificationMapper {
	return &NotificationMapper{}
}

func (m *NotificationMapper) ToEntity(n *model.Notification) *entity.Notification {
	if n == nil {
		return nil
	}

	var meta map[string]interface{}
	if len(n.Metadata) > 0 {
		// Malformed metadata is dropped rather than failing the read.
		_ = json.Unmarshal(n.Metadata, &meta)
	}

	return &entity.Notification{
		Id:        n.ID,
		UserId:    n.UserID,
		MessageId: n.MessageID,
		Metadata:  meta,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func (m *NotificationMapper) ToModel(n *entity.Notification) (*model.Notification, error) {
	if n == nil {
		return nil, nil
	}

	var meta datatypes.JSON
	if n.Metadata != nil {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return nil, err
		}
		meta = datatypes.JSON(raw)
	}

	return &model.Notification{
		ID:        n.Id,
		UserID:    n.UserId,
		MessageID: n.MessageId,
		Metadata:  meta,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}, nil
}

func (m *NotificationMapper) ToEntities(ns []*model.Notification) []*entity.Notification {
	entities := make([]*entity.Notification, len(ns))
	for i, n := range ns {
		entities[i] = m.ToEntity(n)
	}
	return entities
}
