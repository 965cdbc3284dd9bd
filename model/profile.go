package model

/*

UserProfile is the display projection of a user on a profile screen.

FollowersCount/FollowingCount/PostsCount are live-derived from edge and post
queries when the profile is loaded. The optimistic mutation engine may adjust
them by +-1 while a follow write is in flight; those adjustments are
provisional until the next full profile load.

*/

type UserProfile struct {
	Id             string `json:"uid"`
	DisplayName    string `json:"displayName"`
	Email          string `json:"email"`
	PhotoUrl       string `json:"photoURL,omitempty"`
	Bio            string `json:"bio,omitempty"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
	PostsCount     int    `json:"postsCount"`
}
