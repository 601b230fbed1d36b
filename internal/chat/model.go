package chat

import "time"

// PreviewLen caps the denormalized last-message preview on the thread.
const PreviewLen = 100

// Thread is the single conversation between one client and one tenant. The
// unique (client_id, tenant_id) index owns the one-per-pair invariant.
type Thread struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	ClientID        string    `bson:"client_id" json:"clientId"`
	TenantID        string    `bson:"tenant_id" json:"tenantId"`
	LastMessage     string    `bson:"lastMessage" json:"lastMessage"`
	LastMessageTime time.Time `bson:"lastMessageTime" json:"lastMessageTime"`
	UnreadCount     int       `bson:"unreadCount" json:"unreadCount"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

// Participant reports whether userID is one of the thread's two sides.
func (t Thread) Participant(userID string) bool {
	return userID == t.ClientID || userID == t.TenantID
}

type Message struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chatId"`
	TenantID  string    `bson:"tenant_id" json:"tenantId"`
	SenderID  string    `bson:"sender_id" json:"senderId"`
	Content   string    `bson:"content" json:"content"`
	Type      string    `bson:"type" json:"type"`
	IsRead    bool      `bson:"isRead" json:"isRead"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type StartChatRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}
