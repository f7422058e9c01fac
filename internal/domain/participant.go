package domain

import "time"

type ParticipantState string

const (
	ParticipantWaitingApproval ParticipantState = "WAITING_APPROVAL"
	ParticipantApproved        ParticipantState = "APPROVED"
)

// Participant records one user's relationship to one meeting. Rejected and
// removed participants are deleted rather than retained, so every row is a
// live WAITING_APPROVAL or APPROVED record.
type Participant struct {
	ID        string           `json:"id"`
	MeetingID string           `json:"meetingID"`
	UserID    string           `json:"userID"`
	State     ParticipantState `json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ChatRoom is the companion communication channel provisioned per meeting.
type ChatRoom struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meetingID"`
	CreatedAt time.Time `json:"createdAt"`
}
