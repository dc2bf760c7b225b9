package models

import (
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/validate"
)

const Table = "tasks"

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	BusinessID  uuid.UUID  `json:"businessId" db:"business_id"`
	ProjectID   *uuid.UUID `json:"projectId" db:"project_id"`
	AssigneeID  *uuid.UUID `json:"assigneeId" db:"assignee_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    string     `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"dueDate" db:"due_date"`
	CompletedAt *time.Time `json:"completedAt" db:"completed_at"`
	CreatedBy   *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy   *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

var Columns = []string{
	"id", "business_id", "project_id", "assignee_id", "title", "description",
	"status", "priority", "due_date", "completed_at",
	"created_by", "updated_by", "created_at", "updated_at",
}

type CreateTaskRequest struct {
	ProjectID   *string `json:"projectId" validate:"omitempty,uuid"`
	AssigneeID  *string `json:"assigneeId" validate:"omitempty,uuid"`
	Title       string  `json:"title" validate:"required,max=300"`
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"omitempty,oneof=todo in_progress blocked done"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (r CreateTaskRequest) Record() tenant.Record {
	rec := tenant.Record{"title": r.Title}
	if r.Status != "" {
		rec["status"] = r.Status
	}
	if r.Priority != "" {
		rec["priority"] = r.Priority
	}
	for column, v := range map[string]*string{
		"project_id":  r.ProjectID,
		"assignee_id": r.AssigneeID,
		"description": r.Description,
		"due_date":    r.DueDate,
	} {
		if v != nil {
			rec[column] = *v
		}
	}
	return rec
}

var UpdateFields = map[string]string{
	"projectId":   "project_id",
	"assigneeId":  "assignee_id",
	"title":       "title",
	"description": "description",
	"status":      "status",
	"priority":    "priority",
	"dueDate":     "due_date",
}

var UpdateRules = map[string]validate.Rule{
	"project_id":  {Kind: validate.String, Tag: "uuid", Nullable: true},
	"assignee_id": {Kind: validate.String, Tag: "uuid", Nullable: true},
	"title":       {Kind: validate.String, Tag: "required,max=300"},
	"description": {Kind: validate.String, Nullable: true},
	"status":      {Kind: validate.String, Tag: "oneof=todo in_progress blocked done"},
	"priority":    {Kind: validate.String, Tag: "oneof=low medium high urgent"},
	"due_date":    {Kind: validate.String, Tag: "datetime=2006-01-02", Nullable: true},
}

// ListTasksQuery filters the task list. Overdue selects open tasks whose
// due date has passed.
type ListTasksQuery struct {
	Status     string `schema:"status"`
	Priority   string `schema:"priority"`
	ProjectID  string `schema:"project_id"`
	AssigneeID string `schema:"assignee_id"`
	DueBefore  string `schema:"due_before"`
	Overdue    bool   `schema:"overdue"`
}
