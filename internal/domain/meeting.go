package domain

import "time"

type MeetingStatus string

const (
	MeetingStatusActive  MeetingStatus = "ACTIVE"
	MeetingStatusEnded   MeetingStatus = "ENDED"
	MeetingStatusDeleted MeetingStatus = "DELETED"
)

// Meeting is the aggregate users join. ParticipantsCount is a denormalized
// count of APPROVED participants and never exceeds MaxParticipants after a
// committed transaction.
type Meeting struct {
	ID                string        `json:"id"`
	OwnerID           string        `json:"ownerID"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	Place             string        `json:"place,omitempty"`
	Deadline          *time.Time    `json:"deadline,omitempty"`
	MaxParticipants   int           `json:"maxParticipants"`
	ParticipantsCount int           `json:"participantsCount"`
	ApprovalRequired  bool          `json:"approvalRequired"`
	Status            MeetingStatus `json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// MeetingPatch carries field-level updates for Modify. Nil fields are left
// untouched.
type MeetingPatch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Place           *string    `json:"place,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty"`
}
