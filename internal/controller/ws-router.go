package controller

import (
	"github.com/sharetube/watchparty/internal/proto"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, proto.TypeAlive, c.handleAlive)

	// membership
	wsrouter.Handle(mux, proto.TypeJoinRoom, c.handleJoinRoom)
	wsrouter.Handle(mux, proto.TypeLeaveRoom, c.handleLeaveRoom)

	// playback
	wsrouter.Handle(mux, proto.TypePlay, c.handlePlay)
	wsrouter.Handle(mux, proto.TypePause, c.handlePause)
	wsrouter.Handle(mux, proto.TypeSeek, c.handleSeek)
	wsrouter.Handle(mux, proto.TypeSyncTime, c.handleSyncTime)
	wsrouter.Handle(mux, proto.TypeRequestSync, c.handleRequestSync)

	// chat
	wsrouter.Handle(mux, proto.TypeUpdateMovieContext, c.handleUpdateMovieContext)
	wsrouter.Handle(mux, proto.TypeChatMessage, c.handleChatMessage)
	wsrouter.Handle(mux, proto.TypeRequestAiSuggestion, c.handleRequestAiSuggestion)

	return mux
}
