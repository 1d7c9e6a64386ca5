package room

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

type UpdateMovieContextParams struct {
	RoomId   string
	SenderId string
	Context  string
}

// UpdateMovieContext stores the latest description of what is on screen.
func (s service) UpdateMovieContext(ctx context.Context, params *UpdateMovieContextParams) error {
	if err := s.validate(ctx, params,
		validation.Field(&params.RoomId, RoomIdRule...),
		validation.Field(&params.Context, MovieContextRule...),
	); err != nil {
		return err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	if _, err := rm.SetContext(params.Context); err != nil {
		return fmt.Errorf("failed to set context: %w", s.mapRoomErr(err))
	}

	return nil
}

type SendChatMessageParams struct {
	RoomId   string
	SenderId string
	Message  domain.ChatMessage
}

type SendChatMessageResponse struct {
	Message domain.ChatMessage
	Conns   []*connection.Conn
}

// SendChatMessage relays to the whole room, sender included.
func (s service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (SendChatMessageResponse, error) {
	if err := s.validate(ctx, params,
		validation.Field(&params.RoomId, RoomIdRule...),
	); err != nil {
		return SendChatMessageResponse{}, err
	}
	if err := s.validate(ctx, &params.Message,
		validation.Field(&params.Message.Content, ChatContentRule...),
		validation.Field(&params.Message.Sender, ChatSenderRule...),
	); err != nil {
		return SendChatMessageResponse{}, err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return SendChatMessageResponse{}, err
	}

	members, err := rm.Members()
	if err != nil {
		return SendChatMessageResponse{}, fmt.Errorf("failed to get members: %w", s.mapRoomErr(err))
	}

	msg := params.Message
	if msg.Id == "" {
		msg.Id = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = s.clock.Now().UnixMilli()
	}
	msg.IsSuggestion = false

	return SendChatMessageResponse{
		Message: msg,
		Conns:   s.getConnsByMemberIds(ctx, members, ""),
	}, nil
}

type RequestSuggestionParams struct {
	RoomId       string
	SenderId     string
	Username     string
	Relationship string
}

type RequestSuggestionResponse struct {
	// Suggestion is nil when there is nothing to send.
	Suggestion *domain.ChatMessage
	Conns      []*connection.Conn
}

// RequestSuggestion asks the generator for a conversation starter. The room
// lock is only held to read the context and, afterwards, the member list.
func (s service) RequestSuggestion(ctx context.Context, params *RequestSuggestionParams) (RequestSuggestionResponse, error) {
	if err := s.validate(ctx, params,
		validation.Field(&params.RoomId, RoomIdRule...),
		validation.Field(&params.Relationship, RelationshipRule...),
	); err != nil {
		return RequestSuggestionResponse{}, err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return RequestSuggestionResponse{}, err
	}

	roomContext, err := rm.Context()
	if err != nil {
		return RequestSuggestionResponse{}, fmt.Errorf("failed to get context: %w", s.mapRoomErr(err))
	}
	if roomContext == "" {
		s.logger.DebugContext(ctx, "no movie context, skipping suggestion", "room_id", params.RoomId)
		return RequestSuggestionResponse{}, nil
	}

	if s.generator == nil {
		s.logger.DebugContext(ctx, "suggestions disabled", "room_id", params.RoomId)
		return RequestSuggestionResponse{}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.suggestionTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, roomContext, params.Relationship)
	if err != nil {
		return RequestSuggestionResponse{}, fmt.Errorf("%w: %w", ErrSuggestionFailed, err)
	}
	if text == "" {
		text = SuggestionFallback
	}

	members, err := rm.Members()
	if err != nil {
		return RequestSuggestionResponse{}, fmt.Errorf("failed to get members: %w", s.mapRoomErr(err))
	}

	return RequestSuggestionResponse{
		Suggestion: &domain.ChatMessage{
			Id:           uuid.NewString(),
			Sender:       SuggestionSender,
			Content:      text,
			Timestamp:    s.clock.Now().UnixMilli(),
			IsSuggestion: true,
		},
		Conns: s.getConnsByMemberIds(ctx, members, ""),
	}, nil
}
