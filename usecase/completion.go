package usecase

import "github.com/fastygo/taskboard/domain"

// AllCompleted reports whether tasks is non-empty and every task is completed.
func AllCompleted(tasks []*domain.Task) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}
