package models

import (
	"time"
)

type ChatRoom struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	MeetingID string    `json:"meetingID" gorm:"type:text;not null;index:chat_room_meeting,unique"`
	Meeting   Meeting   `json:"-" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE;"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Handle      string    `json:"handle" gorm:"type:text;not null"`
	DisplayName string    `json:"displayName" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
