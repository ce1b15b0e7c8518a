package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project groups tasks under a shared deadline.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Deadline  time.Time `json:"deadline"`
	Completed bool      `json:"completed"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	recorder
}

// NewProject builds an open project and records ProjectCreated.
func NewProject(title string, deadline time.Time) (*Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, NewError(ErrCodeInvalid, "project title cannot be empty")
	}
	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.New(),
		Title:     title,
		Deadline:  deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.record(ProjectCreated{
		Meta:      NewMeta(),
		ProjectID: p.ID,
		Title:     p.Title,
		Deadline:  p.Deadline,
	})
	return p, nil
}

// MarkCompleted completes the project.
//
// allTasksCompleted is a precondition asserted by the caller: the project does
// not look at its tasks. Callers must establish it from a fresh read of the
// project's tasks immediately before this call, with no mutation in between.
// A false assertion is rejected; completing a completed project is a no-op.
func (p *Project) MarkCompleted(allTasksCompleted bool) error {
	if !allTasksCompleted {
		return ProjectCompletionError("cannot complete project %s: not all tasks are completed", p.ID)
	}
	if p.Completed {
		return nil
	}
	p.Completed = true
	p.touch()
	p.record(ProjectCompleted{
		Meta:        NewMeta(),
		ProjectID:   p.ID,
		CompletedAt: p.UpdatedAt,
	})
	return nil
}

// Reopen marks a completed project as open again. Reopening an open project is a no-op.
func (p *Project) Reopen() {
	if !p.Completed {
		return
	}
	p.Completed = false
	p.touch()
	p.record(ProjectReopened{
		Meta:       NewMeta(),
		ProjectID:  p.ID,
		ReopenedAt: p.UpdatedAt,
	})
}

// UpdateDeadline sets a new deadline and always records ProjectDeadlineChanged,
// even when the value is unchanged.
func (p *Project) UpdateDeadline(newDeadline time.Time) {
	old := p.Deadline
	p.Deadline = newDeadline
	p.touch()
	p.record(ProjectDeadlineChanged{
		Meta:        NewMeta(),
		ProjectID:   p.ID,
		OldDeadline: old,
		NewDeadline: newDeadline,
	})
}

// Rename changes the title.
func (p *Project) Rename(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewError(ErrCodeInvalid, "project title cannot be empty")
	}
	p.Title = title
	p.touch()
	return nil
}

func (p *Project) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// Snapshot returns a detached copy of the project state without pending events.
func (p *Project) Snapshot() *Project {
	c := *p
	c.recorder = recorder{}
	return &c
}
