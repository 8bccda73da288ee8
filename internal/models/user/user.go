package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	UUID         uuid.UUID `json:"uuid" db:"uuid"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

const MaxUsernameLength = 150

// bcrypt ignores everything past 72 bytes
const MaxPasswordBytes = 72
