package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Content   string    `json:"content" gorm:"size:1000;not null"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	Task      *Task     `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	return assignID(&c.ID)
}

// All returns every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{&User{}, &Project{}, &Task{}, &Comment{}}
}
