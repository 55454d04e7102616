package models

import "github.com/google/uuid"

// PrekeyBundle is everything a session initiator needs for X3DH against one
// target device. OneTimePrekey is nil when the pool was exhausted and the
// bundle fell back to the signed prekey alone.
type PrekeyBundle struct {
	UserID   uuid.UUID
	DeviceID string

	IdentityKey []byte
	SigningKey  []byte

	SignedPrekey          []byte
	SignedPrekeyID        uint32
	SignedPrekeySignature []byte

	OneTimePrekey   []byte
	OneTimePrekeyID *uint32

	UsedFallback bool
}
