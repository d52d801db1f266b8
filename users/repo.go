package users

import "time"

// UserRepo stores accounts. Lookups of unknown users return apperrors.ErrUserNotFound.
// Create returns apperrors.ErrUserExists when the email is already taken.
type UserRepo interface {
	Create(user *User) error
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	List(offset, limit int) ([]*User, error)
	SetLastLogin(email string, at time.Time) error
}
