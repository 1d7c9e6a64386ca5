package domain

type ChatMessage struct {
	Id           string `json:"id"`
	Sender       string `json:"sender"`
	Content      string `json:"content"`
	Timestamp    int64  `json:"timestamp"`
	IsSuggestion bool   `json:"isSuggestion,omitempty"`
}
