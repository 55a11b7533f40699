package entity

import (
	"time"
)

const (
	UserTypeClient       = "cliente"
	UserTypeEntrepreneur = "emprendedor"
)

type User struct {
	ID        string    `json:"id" firestore:"id"`
	UserName  string    `json:"user_name" firestore:"userName"`
	Email     string    `json:"email" firestore:"email"`
	UserType  string    `json:"user_type" firestore:"userType"`
	PhotoURL  string    `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) IsEntrepreneur() bool {
	return u.UserType == UserTypeEntrepreneur
}

// PublicProfile is what other users get to see.
type PublicProfile struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	UserType string `json:"user_type"`
	PhotoURL string `json:"photo_url,omitempty"`
}

func (u *User) Public() *PublicProfile {
	if u == nil {
		return nil
	}
	return &PublicProfile{
		ID:       u.ID,
		UserName: u.UserName,
		UserType: u.UserType,
		PhotoURL: u.PhotoURL,
	}
}

func IsValidUserType(userType string) bool {
	return userType == UserTypeClient || userType == UserTypeEntrepreneur
}
