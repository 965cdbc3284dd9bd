package model

import "time"

// MaxPostTextLen is the upper bound on a post's caption length.
const MaxPostTextLen = 500

/*

Post is a single user-authored feed entry

Id: primary key, assigned by the document store
UserId: author's user id
UserName: author's display name snapshot at publish time
UserPhoto: author's avatar url snapshot at publish time
Text: optional caption in plain text, at most MaxPostTextLen characters
ImageUrl: optional url of the uploaded image
Timestamp: server-assigned creation time, feed ordering key (descending)
Likes: set of liker user ids, unique membership. The displayed like count is
	always derived from this set's cardinality, never stored independently.

*/

type Post struct {
	Id        string    `json:"id"`
	UserId    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserPhoto string    `json:"userPhoto,omitempty"`
	Text      string    `json:"text,omitempty"`
	ImageUrl  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Likes     []string  `json:"likes"`
}

// LikeCount is the authoritative like count, derived from the liker set.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// LikedBy returns true iff userId is a member of the liker set.
func (p *Post) LikedBy(userId string) bool {
	for _, id := range p.Likes {
		if id == userId {
			return true
		}
	}
	return false
}
