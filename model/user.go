package model

import "time"

/*

User is the authenticated identity recognized by the session.

Id: primary key, assigned by the identity provider, immutable once created
Email: sign-in email address
DisplayName: user chosen name, defaults from the provider profile if the user
	record has none
PhotoUrl: optional avatar url
CreatedAt: time when the user record is created

*/

type User struct {
	Id          string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoUrl    string `json:"photoURL,omitempty"`
	CreatedAt   time.Time
}
