// Package memory holds process-local repository implementations. They enforce
// the same uniqueness rules as the MongoDB store and back the service and HTTP tests.
package memory

import (
	"cmp"
	"time"

	"github.com/dom/lost-found/internal/repository"
)

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User:     NewUserRepository(),
		Profile:  NewProfileRepository(),
		Notice:   NewNoticeRepository(),
		Response: NewResponseRepository(),
		Image:    NewImageStore(),
	}
}

// newestFirst orders by creation time descending, then id descending.
func newestFirst(aTime, bTime time.Time, aID, bID string) int {
	if c := bTime.Compare(aTime); c != 0 {
		return c
	}
	return cmp.Compare(bID, aID)
}
