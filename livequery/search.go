package livequery

import (
	"strings"

	"github.com/framez-app/framez-go/model"
)

// FilterUsers matches identities by case-insensitive substring on display
// name or email, always excluding the caller's own identity. An empty query
// returns everyone but the caller.
func FilterUsers(users []*model.User, query string, selfId string) []*model.User {
	needle := strings.ToLower(strings.TrimSpace(query))

	matched := []*model.User{}
	for _, u := range users {
		if u.Id == selfId {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(u.DisplayName), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) {
			matched = append(matched, u)
		}
	}
	return matched
}
