package models

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectArchived  ProjectStatus = "ARCHIVED"
)

var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectOnHold, ProjectCompleted, ProjectArchived}

func ParseProjectStatus(value string) (ProjectStatus, error) {
	for _, status := range ProjectStatuses {
		if string(status) == value {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown project status %q", value)
}

type Project struct {
	ID          uuid.UUID     `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string        `json:"name" gorm:"size:100;not null"`
	Description string        `json:"description" gorm:"size:1000"`
	Status      ProjectStatus `json:"status" gorm:"size:20;not null;index"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	OwnerID     uuid.UUID     `json:"owner_id" gorm:"type:uuid;not null;index"`
	Owner       *User         `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Members     []User        `json:"members,omitempty" gorm:"many2many:project_members;"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = ProjectActive
	}
	return assignID(&p.ID)
}

func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

func (p *Project) IsMember(userID uuid.UUID) bool {
	for _, member := range p.Members {
		if member.ID == userID {
			return true
		}
	}
	return false
}

func (p *Project) IsOverdue(now time.Time) bool {
	return p.Deadline != nil && p.Deadline.Before(now) && p.Status != ProjectCompleted
}
