package models

import (
	"time"

	"github.com/google/uuid"
)

// KeyBackup holds a user's password-encrypted key export. At most one per
// user; a new upload fully replaces the previous one. The plaintext never
// reaches the server.
type KeyBackup struct {
	UserID uuid.UUID `bun:",pk,type:uuid"`

	EncryptedBackup []byte `bun:",notnull"`
	BackupIV        []byte `bun:",notnull"`
	BackupAuthTag   []byte `bun:",notnull"`

	// KDF parameters the client needs to re-derive the backup key
	Salt       []byte `bun:",notnull"`
	Iterations int    `bun:",notnull"`

	DeviceCount   int `bun:",notnull"`
	BackupVersion int `bun:",notnull"`

	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
