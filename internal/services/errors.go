package services

import "github.com/pkg/errors"

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidType          = errors.New("invalid profile type")
	ErrSelfRoleChange       = errors.New("cannot change your own role")
	ErrSessionNotFound      = errors.New("session not found or expired")
	ErrInvalidToken         = errors.New("invalid session token")
	ErrKeyNotFound          = errors.New("signing key not found")
	ErrKeyRetired           = errors.New("signing key retired")
	ErrInvalidTheme         = errors.New("invalid theme")
	ErrInvalidAudience      = errors.New("invalid audience")
	ErrInvalidBroadcast     = errors.New("title and message are required")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnknownOperation     = errors.New("unknown operation")
	ErrOperationUnsupported = errors.New("operation not supported by this database")
	ErrInvalidState         = errors.New("invalid or expired oauth state")
	ErrUnknownProvider      = errors.New("unknown or disabled oauth provider")
	ErrInvalidBackupName    = errors.New("invalid backup name")
	ErrBackupNotFound       = errors.New("backup not found")
)
