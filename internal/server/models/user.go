package models

import "time"

// PasswordCredential is a salted password hash. Version selects the
// algorithm, see cryptox.PasswordScrypt and cryptox.PasswordArgon2id.
type PasswordCredential struct {
	Salt    string `json:"salt"`
	Hash    string `json:"hash"`
	Version int    `json:"version"`
}

type User struct {
	ID        string             `json:"id"`
	Username  string             `json:"username"`
	Password  PasswordCredential `json:"password"`
	CreatedAt time.Time          `json:"createdAt"`
}

func (u User) Clone() User { return u }

// PublicUser is what the API returns about an account; it never carries the
// credential.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}
