package model

import "time"

// Conversation は2アカウント間の会話を表す。
// 参加者の組は一意で、最初のメッセージ送信時に作成される。
type Conversation struct {
	ID            string
	ParticipantA  string
	ParticipantB  string
	LastMessageID string
	CreatedAt     time.Time
}

// HasParticipant は指定アカウントが会話の参加者かどうかを返す。
func (c *Conversation) HasParticipant(accountID string) bool {
	return c.ParticipantA == accountID || c.ParticipantB == accountID
}

// OtherParticipant は指定アカウントの相手側の参加者IDを返す。
// 指定アカウントが参加者でない場合は空文字を返す。
func (c *Conversation) OtherParticipant(accountID string) string {
	switch accountID {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	}
	return ""
}

// Message は会話内の1メッセージを表す。
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	Read           bool
	SentAt         time.Time
}
