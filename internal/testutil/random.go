package testutil

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RandomEmail returns a unique lower-case email address.
func RandomEmail() string {
	return fmt.Sprintf("user-%s@example.com", strings.ReplaceAll(uuid.NewString()[:13], "-", ""))
}

// RandomName returns a unique display name with the given prefix.
func RandomName(prefix string) string {
	return fmt.Sprintf("%s %s", prefix, uuid.NewString()[:8])
}
