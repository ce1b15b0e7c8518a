package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task represents a unit of work, optionally owned by a Project.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Deadline    time.Time  `json:"deadline"`
	Completed   bool       `json:"completed"`
	ProjectID   *uuid.UUID `json:"project_id"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	recorder
}

// NewTask builds an open task and records TaskCreated. The deadline is not
// checked against the owning project; callers holding the project do that.
func NewTask(title string, deadline time.Time, description *string, projectID *uuid.UUID) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, NewError(ErrCodeInvalid, "task title cannot be empty")
	}
	now := time.Now().UTC()
	t := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Deadline:    deadline,
		ProjectID:   cloneID(projectID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.record(TaskCreated{
		Meta:      NewMeta(),
		TaskID:    t.ID,
		Title:     t.Title,
		Deadline:  t.Deadline,
		ProjectID: cloneID(t.ProjectID),
	})
	return t, nil
}

// MarkCompleted completes the task. Completing a completed task is a no-op.
func (t *Task) MarkCompleted() {
	if t.Completed {
		return
	}
	t.Completed = true
	t.touch()
	t.record(TaskCompleted{
		Meta:        NewMeta(),
		TaskID:      t.ID,
		ProjectID:   cloneID(t.ProjectID),
		CompletedAt: t.UpdatedAt,
	})
}

// Reopen marks a completed task as open again. Reopening an open task is a no-op.
func (t *Task) Reopen() {
	if !t.Completed {
		return
	}
	t.Completed = false
	t.touch()
	t.record(TaskReopened{
		Meta:       NewMeta(),
		TaskID:     t.ID,
		ProjectID:  cloneID(t.ProjectID),
		ReopenedAt: t.UpdatedAt,
	})
}

// UpdateDeadline moves the deadline. When projectDeadline is given the new
// deadline must not be later than it. TaskDeadlineChanged is recorded even
// when the value does not change.
func (t *Task) UpdateDeadline(newDeadline time.Time, projectDeadline *time.Time) error {
	if projectDeadline != nil && newDeadline.After(*projectDeadline) {
		return InvalidDeadline("task deadline %s cannot be later than project deadline %s",
			newDeadline.Format(time.RFC3339), projectDeadline.Format(time.RFC3339))
	}
	old := t.Deadline
	t.Deadline = newDeadline
	t.touch()
	t.record(TaskDeadlineChanged{
		Meta:        NewMeta(),
		TaskID:      t.ID,
		OldDeadline: old,
		NewDeadline: newDeadline,
	})
	return nil
}

// LinkToProject attaches the task to a project whose deadline is not earlier
// than the task's. On failure the current link is left untouched.
func (t *Task) LinkToProject(projectID uuid.UUID, projectDeadline time.Time) error {
	if t.Deadline.After(projectDeadline) {
		return InvalidDeadline("cannot link task: task deadline %s is later than project deadline %s",
			t.Deadline.Format(time.RFC3339), projectDeadline.Format(time.RFC3339))
	}
	t.ProjectID = &projectID
	t.touch()
	return nil
}

// UnlinkFromProject clears the project reference.
func (t *Task) UnlinkFromProject() {
	t.ProjectID = nil
	t.touch()
}

// BelongsTo reports whether the task is linked to the given project.
func (t *Task) BelongsTo(projectID uuid.UUID) bool {
	return t != nil && t.ProjectID != nil && *t.ProjectID == projectID
}

// IsOverdue reports whether an open task's deadline is before reference.
// A zero reference means now.
func (t *Task) IsOverdue(reference time.Time) bool {
	if t == nil || t.Completed {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return t.Deadline.Before(reference)
}

// IsDeadlineApproaching reports whether an open task is due within window
// after reference, excluding deadlines that already passed.
func (t *Task) IsDeadlineApproaching(reference time.Time, window time.Duration) bool {
	if t == nil || t.Completed {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	remaining := t.Deadline.Sub(reference)
	return remaining > 0 && remaining <= window
}

func (t *Task) touch() {
	t.UpdatedAt = time.Now().UTC()
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// Snapshot returns a detached copy of the task state without pending events.
func (t *Task) Snapshot() *Task {
	c := *t
	c.recorder = recorder{}
	c.ProjectID = cloneID(t.ProjectID)
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}

// Rename changes the title.
func (t *Task) Rename(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewError(ErrCodeInvalid, "task title cannot be empty")
	}
	t.Title = title
	t.touch()
	return nil
}

// Describe replaces the description; nil clears it.
func (t *Task) Describe(description *string) {
	t.Description = description
	t.touch()
}
