package model

import "time"

/*

Follow is a directed relationship record between two identities

FollowerId: the user who follows
FollowingId: the user being followed
CreatedAt: time when relation is created

The composite key (FollowerId, FollowingId) is unique and doubles as the
document id. Existence of the record means "is following"; there is no
soft-delete, toggling off deletes the record.

*/

type Follow struct {
	FollowerId  string    `json:"followerId"`
	FollowingId string    `json:"followingId"`
	CreatedAt   time.Time `json:"timestamp"`
}

// FollowDocId builds the document id for a follow edge. One edge per
// (follower, followee) pair.
func FollowDocId(followerId string, followingId string) string {
	return followerId + "_" + followingId
}
