package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies a concrete domain event variant.
type EventKind string

const (
	KindTaskCreated            EventKind = "task.created"
	KindTaskCompleted          EventKind = "task.completed"
	KindTaskReopened           EventKind = "task.reopened"
	KindTaskDeadlineChanged    EventKind = "task.deadline_changed"
	KindProjectCreated         EventKind = "project.created"
	KindProjectCompleted       EventKind = "project.completed"
	KindProjectReopened        EventKind = "project.reopened"
	KindProjectDeadlineChanged EventKind = "project.deadline_changed"
)

// EventKinds returns every kind in the closed event set.
func EventKinds() []EventKind {
	return []EventKind{
		KindTaskCreated,
		KindTaskCompleted,
		KindTaskReopened,
		KindTaskDeadlineChanged,
		KindProjectCreated,
		KindProjectCompleted,
		KindProjectReopened,
		KindProjectDeadlineChanged,
	}
}

// Event is a change that happened to a Task or a Project.
// The set of implementations is closed: only types in this package satisfy it.
type Event interface {
	EventID() uuid.UUID
	OccurredAt() time.Time
	Kind() EventKind
	sealed()
}

// Meta carries the identity and timestamp assigned when an event is raised.
type Meta struct {
	ID   uuid.UUID `json:"event_id"`
	When time.Time `json:"occurred_at"`
}

// NewMeta stamps a fresh event id and the current UTC time.
func NewMeta() Meta {
	return Meta{ID: uuid.New(), When: time.Now().UTC()}
}

func (m Meta) EventID() uuid.UUID    { return m.ID }
func (m Meta) OccurredAt() time.Time { return m.When }
func (Meta) sealed()                 {}

type TaskCreated struct {
	Meta
	TaskID    uuid.UUID  `json:"task_id"`
	Title     string     `json:"title"`
	Deadline  time.Time  `json:"deadline"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
}

func (TaskCreated) Kind() EventKind { return KindTaskCreated }

type TaskCompleted struct {
	Meta
	TaskID      uuid.UUID  `json:"task_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	CompletedAt time.Time  `json:"completed_at"`
}

func (TaskCompleted) Kind() EventKind { return KindTaskCompleted }

type TaskReopened struct {
	Meta
	TaskID     uuid.UUID  `json:"task_id"`
	ProjectID  *uuid.UUID `json:"project_id,omitempty"`
	ReopenedAt time.Time  `json:"reopened_at"`
}

func (TaskReopened) Kind() EventKind { return KindTaskReopened }

type TaskDeadlineChanged struct {
	Meta
	TaskID      uuid.UUID `json:"task_id"`
	OldDeadline time.Time `json:"old_deadline"`
	NewDeadline time.Time `json:"new_deadline"`
}

func (TaskDeadlineChanged) Kind() EventKind { return KindTaskDeadlineChanged }

type ProjectCreated struct {
	Meta
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	Deadline  time.Time `json:"deadline"`
}

func (ProjectCreated) Kind() EventKind { return KindProjectCreated }

type ProjectCompleted struct {
	Meta
	ProjectID   uuid.UUID `json:"project_id"`
	CompletedAt time.Time `json:"completed_at"`
}

func (ProjectCompleted) Kind() EventKind { return KindProjectCompleted }

type ProjectReopened struct {
	Meta
	ProjectID  uuid.UUID `json:"project_id"`
	ReopenedAt time.Time `json:"reopened_at"`
}

func (ProjectReopened) Kind() EventKind { return KindProjectReopened }

type ProjectDeadlineChanged struct {
	Meta
	ProjectID   uuid.UUID `json:"project_id"`
	OldDeadline time.Time `json:"old_deadline"`
	NewDeadline time.Time `json:"new_deadline"`
}

func (ProjectDeadlineChanged) Kind() EventKind { return KindProjectDeadlineChanged }

// Shortened reports whether the new deadline is earlier than the old one.
func (e ProjectDeadlineChanged) Shortened() bool {
	return e.NewDeadline.Before(e.OldDeadline)
}

// recorder is the pending-event buffer embedded in entities.
type recorder struct {
	pending []Event
}

func (r *recorder) record(e Event) {
	r.pending = append(r.pending, e)
}

// CollectEvents drains the buffer: it returns the pending events in the order
// they were raised and leaves the buffer empty.
func (r *recorder) CollectEvents() []Event {
	if len(r.pending) == 0 {
		return nil
	}
	out := r.pending
	r.pending = nil
	return out
}

// PendingEvents reports how many events are waiting to be collected.
func (r *recorder) PendingEvents() int {
	return len(r.pending)
}
