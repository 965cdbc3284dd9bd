package model

import (
	"time"

	"github.com/framez-app/framez-go/provider"
)

// Conversions from schemaless provider documents into typed entities. Field
// values may arrive as native Go types (in-memory provider) or as their JSON
// round-tripped shapes (redis provider), both are accepted.

func UserFromDocument(doc provider.Document) *User {
	return &User{
		Id:          doc.Id(),
		Email:       docString(doc, "email"),
		DisplayName: docString(doc, "displayName"),
		PhotoUrl:    docString(doc, "photoURL"),
		CreatedAt:   docTime(doc, "createdAt"),
	}
}

func PostFromDocument(doc provider.Document) *Post {
	return &Post{
		Id:        doc.Id(),
		UserId:    docString(doc, "userId"),
		UserName:  docString(doc, "userName"),
		UserPhoto: docString(doc, "userPhoto"),
		Text:      docString(doc, "text"),
		ImageUrl:  docString(doc, "imageUrl"),
		Timestamp: docTime(doc, "timestamp"),
		Likes:     docStringSlice(doc, "likes"),
	}
}

func FollowFromDocument(doc provider.Document) *Follow {
	return &Follow{
		FollowerId:  docString(doc, "followerId"),
		FollowingId: docString(doc, "followingId"),
		CreatedAt:   docTime(doc, "timestamp"),
	}
}

func docString(doc provider.Document, field string) string {
	s, _ := doc[field].(string)
	return s
}

func docTime(doc provider.Document, field string) time.Time {
	switch v := doc[field].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func docStringSlice(doc provider.Document, field string) []string {
	switch v := doc[field].(type) {
	case []string:
		return v
	case []interface{}:
		res := []string{}
		for _, item := range v {
			if s, ok := item.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}
	return []string{}
}
