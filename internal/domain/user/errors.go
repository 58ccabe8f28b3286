package user

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or missing access token")
	ErrTeacherAccessRequired = errors.New("teacher access required")
	ErrAdminAccessRequired   = errors.New("admin access required")
)
