package utils

import (
	"github.com/google/uuid"
)

// UUID generates new UUID string which we use as message IDs.
func UUID() string {
	return uuid.New().String()
}
