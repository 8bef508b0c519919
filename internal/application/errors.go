package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotExists      = errors.New("user does not exist")
	ErrInvalidID          = errors.New("invalid user id")

	// ErrInvalidPassword rejects a password update that matches the current password.
	ErrInvalidPassword = errors.New("password must differ from the current one")

	// ErrRevocationUnsupported is returned by every revoke attempt on stateless tokens.
	ErrRevocationUnsupported = errors.New("token revocation is not supported for JWT: a token stays valid until it expires")
)

// ErrorCode values sent to clients in error bodies.
type ErrorCode string

const (
	CodeRegisterInvalidPassword      ErrorCode = "REGISTER_INVALID_PASSWORD"
	CodeRegisterUserAlreadyExists    ErrorCode = "REGISTER_USER_ALREADY_EXISTS"
	CodeLoginBadCredentials          ErrorCode = "LOGIN_BAD_CREDENTIALS"
	CodeUpdateUserEmailAlreadyExists ErrorCode = "UPDATE_USER_EMAIL_ALREADY_EXISTS"
	CodeUpdateUserInvalidPassword    ErrorCode = "UPDATE_USER_INVALID_PASSWORD"
)
