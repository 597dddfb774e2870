// errors/user_errors.go
package errors

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidUserData   = errors.New("invalid user data")
	ErrInvalidInput      = errors.New("invalid authorization input")
	ErrDatabaseOperation = errors.New("database operation failed")
)
