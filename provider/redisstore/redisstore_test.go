package redisstore

import (
	"os"
	"testing"

	"github.com/framez-app/framez-go/provider"
	"github.com/framez-app/framez-go/utils/dotenv"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestKeyConstruction(t *testing.T) {
	s := &Store{prefix: "framez"}
	assert.Equal(t, "framez__posts__p1", s.docKey("posts", "p1"))
	assert.Equal(t, "framez__posts", s.collectionKey("posts"))
	assert.Equal(t, "framez__changes__posts", s.changeChannel("posts"))
}

func TestMatchesFilters(t *testing.T) {
	doc := provider.Document{"userId": "u1", "count": float64(3)}

	assert.True(t, matchesFilters(doc, nil))
	assert.True(t, matchesFilters(doc, []provider.Filter{{Field: "userId", Value: "u1"}}))
	assert.False(t, matchesFilters(doc, []provider.Filter{{Field: "userId", Value: "u2"}}))
	// JSON round-trips numbers to float64, equality must still hold against
	// an int filter value.
	assert.True(t, matchesFilters(doc, []provider.Filter{{Field: "count", Value: 3}}))
}

func TestLessThanOrdersRfc3339Strings(t *testing.T) {
	assert.True(t, lessThan("2024-01-01T00:00:00Z", "2024-06-01T00:00:00Z"))
	assert.False(t, lessThan("2024-06-01T00:00:00Z", "2024-01-01T00:00:00Z"))
	assert.True(t, lessThan(float64(1), float64(2)))
	// Mismatched types compare as equal to keep sorting stable.
	assert.False(t, lessThan("a", float64(2)))
}
