package bookmarker

import (
	"database/sql"
	"time"
)

type tCourse struct {
	ID   uint
	Name string `gorm:"type:varchar(255);not null"`
}

func (tCourse) TableName() string { return "courses" }

type tAssignment struct {
	ID          uint
	CourseID    uint
	Course      *tCourse
	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	DueAt       *time.Time
	Points      float64
	Published   bool
}

func (tAssignment) TableName() string { return "assignments" }

type tSubmission struct {
	ID           uint
	AssignmentID uint
	Assignment   *tAssignment
	CachedDueAt  *time.Time
	Score        sql.NullFloat64
}

func (tSubmission) TableName() string { return "submissions" }

type tTask struct {
	ID        uint
	Title     string
	DueAt     *time.Time
	CreatedAt time.Time
	Comments  []tComment `gorm:"foreignKey:TaskID"`
}

func (tTask) TableName() string { return "tasks" }

type tComment struct {
	ID     uint
	TaskID uint
	Body   string
}

func (tComment) TableName() string { return "comments" }
