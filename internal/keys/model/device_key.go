package models

import (
	"time"

	"github.com/google/uuid"
)

type DeviceType string

const (
	DeviceTypeWeb     DeviceType = "web"
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeDesktop DeviceType = "desktop"
)

func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeWeb, DeviceTypeMobile, DeviceTypeDesktop:
		return true
	}
	return false
}

// DeviceKey is one registered device for one user. The identity and signing
// keys are immutable for the lifetime of the row; a new cryptographic
// identity means a new row (device regeneration), never an update.
type DeviceKey struct {
	ID       int64     `bun:",pk,autoincrement"`
	UserID   uuid.UUID `bun:",notnull,type:uuid,unique:user_device"`
	DeviceID string    `bun:",notnull,unique:user_device"`

	// Ed25519 verification key — signs the device's signed prekeys
	SigningKey []byte `bun:",notnull"` // 32 bytes

	// Curve25519 — static X3DH key
	IdentityKey []byte `bun:",notnull"` // 32 bytes

	SignedPrekey          []byte `bun:",notnull"` // 32 bytes Curve25519
	SignedPrekeyID        uint32 `bun:",notnull"`
	SignedPrekeySignature []byte `bun:",notnull"` // 64 bytes Ed25519

	DeviceName string     `bun:",notnull"`
	DeviceType DeviceType `bun:",notnull"`

	CreatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	LastSeenAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
