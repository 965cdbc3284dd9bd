package livequery

import (
	"testing"

	"github.com/framez-app/framez-go/model"
	"github.com/stretchr/testify/assert"
)

func searchIndex() []*model.User {
	return []*model.User{
		{Id: "u1", DisplayName: "Ana Torres", Email: "ana@framez.app"},
		{Id: "u2", DisplayName: "Bruno", Email: "bruno@example.com"},
		{Id: "u3", DisplayName: "Anastasia", Email: "stace@example.com"},
	}
}

func TestFilterUsersSubstringMatch(t *testing.T) {
	got := FilterUsers(searchIndex(), "ana", "")
	assert.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].Id)
	assert.Equal(t, "u3", got[1].Id)

	// Email matches too.
	got = FilterUsers(searchIndex(), "example.com", "")
	assert.Len(t, got, 2)
}

func TestFilterUsersExcludesSelf(t *testing.T) {
	// The caller never appears in results regardless of query string.
	got := FilterUsers(searchIndex(), "ana", "u1")
	assert.Len(t, got, 1)
	assert.Equal(t, "u3", got[0].Id)

	got = FilterUsers(searchIndex(), "", "u2")
	for _, u := range got {
		assert.NotEqual(t, "u2", u.Id)
	}
}

func TestFilterUsersEmptyQueryReturnsEveryoneElse(t *testing.T) {
	got := FilterUsers(searchIndex(), "   ", "u1")
	assert.Len(t, got, 2)
}

func TestFilterUsersNoMatch(t *testing.T) {
	got := FilterUsers(searchIndex(), "zzz", "")
	assert.Len(t, got, 0)
}
