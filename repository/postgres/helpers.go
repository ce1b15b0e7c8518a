package postgres

import (
	"time"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func orNow(t time.Time) interface{} {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
