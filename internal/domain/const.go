package domain

const (
	RequesterIDCtxKey     = "gatherd-requesterId"
	RequesterHandleCtxKey = "gatherd-requesterHandle"
)

// Event describes a meeting lifecycle or participation change, published to
// the per-meeting channel and streamed to realtime listeners.
type Event struct {
	Type          string `json:"type"`
	MeetingID     string `json:"meetingID"`
	ParticipantID string `json:"participantID,omitempty"`
	UserID        string `json:"userID,omitempty"`
}

const (
	EventMeetingCreated      = "meeting.created"
	EventMeetingUpdated      = "meeting.updated"
	EventMeetingEnded        = "meeting.ended"
	EventMeetingDeleted      = "meeting.deleted"
	EventParticipantJoined   = "participant.joined"
	EventParticipantApproved = "participant.approved"
	EventParticipantRejected = "participant.rejected"
	EventParticipantRemoved  = "participant.removed"
)
