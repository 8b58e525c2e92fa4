package mapper

import (
	"messaging-be/internal/entity"
	"messaging-be/internal/model"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:              msg.Id,
		SenderId:        msg.SenderId,
		ReceiverId:      msg.ReceiverId,
		Content:         msg.Content,
		IsRead:          msg.IsRead,
		Edited:          msg.Edited,
		LastEditedAt:    msg.LastEditedAt,
		ParentMessageId: msg.ParentMessageId,
		IsThreadRoot:    msg.IsThreadRoot,
		Version:         msg.Version,
		CreatedAt:       msg.CreatedAt,
	}
}

// ToModel derives IsThreadRoot from the parent reference so a stored row can
// never carry both a parent and the root flag.
func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:              msg.Id,
		SenderId:        msg.SenderId,
		ReceiverId:      msg.ReceiverId,
		Content:         msg.Content,
		IsRead:          msg.IsRead,
		Edited:          msg.Edited,
		LastEditedAt:    msg.LastEditedAt,
		ParentMessageId: msg.ParentMessageId,
		IsThreadRoot:    msg.ParentMessageId == nil,
		Version:         msg.Version,
		CreatedAt:       msg.CreatedAt,
	}
}

func (m *MessageMapper) ToEntities(msgs []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}

func (m *MessageMapper) HistoryToEntity(h *model.MessageHistory) *entity.MessageHistory {
	if h == nil {
		return nil
	}
	return &entity.MessageHistory{
		Id:         h.Id,
		MessageId:  h.MessageId,
		OldContent: h.OldContent,
		EditedAt:   h.EditedAt,
		EditedBy:   h.EditedBy,
	}
}

func (m *MessageMapper) HistoryToModel(h *entity.MessageHistory) *model.MessageHistory {
	if h == nil {
		return nil
	}
	return &model.MessageHistory{
		Id:         h.Id,
		MessageId:  h.MessageId,
		OldContent: h.OldContent,
		EditedAt:   h.EditedAt,
		EditedBy:   h.EditedBy,
	}
}

func (m *MessageMapper) HistoriesToEntities(hs []*model.MessageHistory) []*entity.MessageHistory {
	entities := make([]*entity.MessageHistory, len(hs))
	for i, h := range hs {
		entities[i] = m.HistoryToEntity(h)
	}
	return entities
}

func (m *MessageMapper) UnreadRowsToEntities(rows []model.UnreadMessageRow) []*entity.UnreadMessage {
	entities := make([]*entity.UnreadMessage, len(rows))
	for i, r := range rows {
		entities[i] = &entity.UnreadMessage{
			Id:             r.Id,
			Content:        r.Content,
			CreatedAt:      r.CreatedAt,
			SenderId:       r.SenderId,
			SenderUsername: r.SenderUsername,
		}
	}
	return entities
}
