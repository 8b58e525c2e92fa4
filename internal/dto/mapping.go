package dto

import "messaging-be/internal/entity"

func NewMessageResponse(m *entity.Message) *MessageResponse {
	return &MessageResponse{
		Id:              m.Id,
		SenderId:        m.SenderId,
		ReceiverId:      m.ReceiverId,
		Content:         m.Content,
		IsRead:          m.IsRead,
		Edited:          m.Edited,
		LastEditedAt:    m.LastEditedAt,
		ParentMessageId: m.ParentMessageId,
		IsThreadRoot:    m.IsThreadRoot,
		CreatedAt:       m.CreatedAt,
	}
}

func NewMessageResponses(ms []*entity.Message) []*MessageResponse {
	res := make([]*MessageResponse, 0, len(ms))
	for _, m := range ms {
		res = append(res, NewMessageResponse(m))
	}
	return res
}

func NewMessageHistoryResponse(h *entity.MessageHistory) *MessageHistoryResponse {
	return &MessageHistoryResponse{
		Id:         h.Id,
		MessageId:  h.MessageId,
		OldContent: h.OldContent,
		EditedAt:   h.EditedAt,
		EditedBy:   h.EditedBy,
	}
}

func NewUnreadMessageResponse(u *entity.UnreadMessage) *UnreadMessageResponse {
	return &UnreadMessageResponse{
		Id:        u.Id,
		Content:   u.Content,
		CreatedAt: u.CreatedAt,
		Sender: MessageSender{
			Id:       u.SenderId,
			Username: u.SenderUsername,
		},
	}
}

func NewNotificationResponse(n *entity.Notification) *NotificationResponse {
	return &NotificationResponse{
		Id:        n.Id,
		UserId:    n.UserId,
		MessageId: n.MessageId,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		Id:        u.Id,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
