package room

type JoinResult struct {
	IsRoomCreated bool
	IsNewMember   bool
}

type LeaveResult struct {
	RoomId        string
	IsRoomDeleted bool
}
