package models

import (
	"time"
)

type Meeting struct {
	ID                string     `json:"id" gorm:"primaryKey;type:text"`
	OwnerID           string     `json:"ownerID" gorm:"type:text;not null;index"`
	Title             string     `json:"title" gorm:"type:text;not null"`
	Description       string     `json:"description" gorm:"type:text"`
	Place             string     `json:"place" gorm:"type:text"`
	Deadline          *time.Time `json:"deadline" gorm:"type:timestamp with time zone"`
	MaxParticipants   int        `json:"maxParticipants" gorm:"not null"`
	ParticipantsCount int        `json:"participantsCount" gorm:"not null;default:0"`
	ApprovalRequired  bool       `json:"approvalRequired" gorm:"type:boolean;not null;default:false"`
	Status            string     `json:"status" gorm:"type:text;not null;default:'ACTIVE';index"`
	CDate             time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Participant struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	MeetingID string    `json:"meetingID" gorm:"type:text;not null;index:participant_meeting_user,unique"`
	Meeting   Meeting   `json:"-" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE;"`
	UserID    string    `json:"userID" gorm:"type:text;not null;index:participant_meeting_user,unique"`
	State     string    `json:"state" gorm:"type:text;not null"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
