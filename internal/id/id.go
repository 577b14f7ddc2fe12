package id

import "github.com/google/uuid"

// GenerateToken returns an opaque, unguessable token used to address
// server-held exam state.
func GenerateToken() string {
	return uuid.NewString()
}

// ValidToken reports whether s has the shape of a token from GenerateToken.
func ValidToken(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
