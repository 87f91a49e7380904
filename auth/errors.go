package auth

import "errors"

var (
	LoginFailedErr   = errors.New("login failed")
	RefreshFailedErr = errors.New("refresh failed")
	NotLoggedInErr   = errors.New("not logged in")
)
