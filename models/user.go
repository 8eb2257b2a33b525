package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MaxUserNameLength caps display names, matching the column width.
const MaxUserNameLength = 100

// User models a cinetrack profile that owns a movie list.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidateUserName checks a display name: non-empty after trimming,
// letters and spaces only, at most MaxUserNameLength runes.
func ValidateUserName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	runes := []rune(name)
	if len(runes) > MaxUserNameLength {
		return fmt.Errorf("name exceeds %d characters", MaxUserNameLength)
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && r != ' ' {
			return fmt.Errorf("name may only contain letters and spaces")
		}
	}
	return nil
}
