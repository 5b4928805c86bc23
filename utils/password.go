package utils

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// GenerateVerificationCode returns a six digit code for email
// confirmation.
func GenerateVerificationCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}
