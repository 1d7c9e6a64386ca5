// Package proto holds the websocket event names and payloads shared by the
// server and the sync client. Every frame is {"type": ..., "payload": ...}.
package proto

import (
	"bytes"
	"encoding/json"

	"github.com/sharetube/watchparty/internal/domain"
)

const (
	// client to server
	TypeJoinRoom            = "join_room"
	TypeLeaveRoom           = "leave_room"
	TypeSyncTime            = "sync_time"
	TypeRequestSync         = "request_sync"
	TypeUpdateMovieContext  = "update_movie_context"
	TypeRequestAiSuggestion = "request_ai_suggestion"
	TypeAlive               = "alive"

	// both directions
	TypePlay        = "play"
	TypePause       = "pause"
	TypeSeek        = "seek"
	TypeChatMessage = "chat_message"

	// server to client
	TypeConnected    = "connected"
	TypeSyncState    = "sync_state"
	TypeAiSuggestion = "ai_suggestion"
	TypeError        = "error"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RoomRef accepts either a bare room id string or {"roomId": "..."}.
type RoomRef struct {
	RoomId string `json:"roomId"`
}

func (r *RoomRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.RoomId)
	}

	type plain RoomRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = RoomRef(p)

	return nil
}

type PlaybackInput struct {
	RoomId      string  `json:"roomId"`
	CurrentTime float64 `json:"currentTime"`
}

type MovieContextInput struct {
	RoomId  string `json:"roomId"`
	Context string `json:"context"`
}

type ChatMessageInput struct {
	RoomId  string             `json:"roomId"`
	Message domain.ChatMessage `json:"message"`
}

type AiSuggestionInput struct {
	RoomId       string `json:"roomId"`
	Username     string `json:"username"`
	Relationship string `json:"relationship"`
}

type SyncState struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

type Connected struct {
	MemberId string `json:"memberId"`
}

type Error struct {
	Message string `json:"message"`
}
