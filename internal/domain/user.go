package domain

import "strings"

// User is one authorized board operator, keyed by roll number.
type User struct {
	RollNumber string
	Name       string
	IsAdmin    bool
}

// NewUser validates and normalizes a user record.
func NewUser(rollNumber, name string, isAdmin bool) (User, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	name = strings.TrimSpace(name)
	if rollNumber == "" {
		return User{}, ErrInvalidID
	}
	if name == "" {
		name = rollNumber
	}
	return User{RollNumber: rollNumber, Name: name, IsAdmin: isAdmin}, nil
}

// NormalizeUserIDs trims, drops blanks and "nan" placeholders, and dedupes while preserving order.
func NormalizeUserIDs(users []string) []string {
	out := make([]string, 0, len(users))
	seen := make(map[string]struct{}, len(users))
	for _, raw := range users {
		user := strings.TrimSpace(raw)
		if user == "" || strings.EqualFold(user, "nan") || strings.EqualFold(user, "null") {
			continue
		}
		if _, ok := seen[user]; ok {
			continue
		}
		seen[user] = struct{}{}
		out = append(out, user)
	}
	return out
}
