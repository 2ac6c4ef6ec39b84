package vectorstore

import "time"

// Exchange is one stored user/assistant turn pair with metadata. Exchanges
// are written once after a successful chat turn and never mutated.
type Exchange struct {
	UserID           string
	ChannelID        string
	UserMessage      string
	AIResponse       string
	Model            string
	Timestamp        time.Time
	ConversationText string
}

// Hit is a past exchange returned by similarity search or scroll listing.
// Score is cosine similarity in [-1, 1]; it is zero for scroll results.
type Hit struct {
	ID          string
	Score       float32
	UserMessage string
	AIResponse  string
	Model       string
	Timestamp   time.Time
}
