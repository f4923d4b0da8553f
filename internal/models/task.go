package models

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskInReview   TaskStatus = "IN_REVIEW"
	TaskDone       TaskStatus = "DONE"
	TaskCancelled  TaskStatus = "CANCELLED"
)

var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskInReview, TaskDone, TaskCancelled}

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskTodo:       {TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskInReview, TaskTodo, TaskCancelled},
	TaskInReview:   {TaskDone, TaskInProgress},
	TaskDone:       {TaskInReview},
	TaskCancelled:  {TaskTodo},
}

// CanTransitionTo reports whether the status machine allows moving to next.
// Self-transitions are never allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseTaskStatus(value string) (TaskStatus, error) {
	for _, status := range TaskStatuses {
		if string(status) == value {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown task status %q", value)
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func ParseTaskPriority(value string) (TaskPriority, error) {
	for _, priority := range TaskPriorities {
		if string(priority) == value {
			return priority, nil
		}
	}
	return "", fmt.Errorf("unknown task priority %q", value)
}

type Task struct {
	ID          uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string       `json:"title" gorm:"size:200;not null"`
	Description string       `json:"description" gorm:"size:2000"`
	Status      TaskStatus   `json:"status" gorm:"size:20;not null;index"`
	Priority    TaskPriority `json:"priority" gorm:"size:20;not null;index"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	ProjectID   uuid.UUID    `json:"project_id" gorm:"type:uuid;not null;index"`
	Project     *Project     `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	ReporterID  uuid.UUID    `json:"reporter_id" gorm:"type:uuid;not null;index"`
	Reporter    *User        `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty" gorm:"type:uuid;index"`
	Assignee    *User        `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return assignID(&t.ID)
}

func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskDone && t.Status != TaskCancelled
}
