package keys

import (
	"time"

	"github.com/google/uuid"

	models "keydepot/internal/keys/model"
)

// NOTE: commands travel from handler to usecase, DTOs the other way.
// All key material in commands is base64; the usecase decodes and
// length-checks it before anything touches storage.

// Input commands
type RegisterDeviceCommand struct {
	UserID   uuid.UUID
	DeviceID string

	IdentityKey string // base64, 32 bytes Curve25519
	SigningKey  string // base64, 32 bytes Ed25519

	SignedPrekey SignedPrekeyUpload

	DeviceName string
	DeviceType string
}

type SignedPrekeyUpload struct {
	KeyID     uint32
	PublicKey string // base64, 32 bytes
	Signature []byte // 64 bytes, over the raw prekey bytes
}

type OneTimePrekeyUpload struct {
	KeyID     uint32
	PublicKey string // base64, 32 bytes
}

type RotateSignedPrekeyCommand struct {
	UserID   uuid.UUID
	DeviceID string
	Prekey   SignedPrekeyUpload
}

type UploadPrekeysCommand struct {
	UserID   uuid.UUID
	DeviceID string
	Prekeys  []OneTimePrekeyUpload
}

type BootstrapSessionCommand struct {
	TargetUser    uuid.UUID
	TargetDevice  string
	ClaimerUser   uuid.UUID
	ClaimerDevice string
}

type StoreBackupCommand struct {
	EncryptedBackup []byte
	IV              []byte
	AuthTag         []byte
	Salt            []byte
	Iterations      int
	DeviceCount     int
}

// RegenerateDeviceCommand replaces a device's cryptographic identity after a
// mismatch. Same shape as registration: a regenerated device is a brand-new
// identity that happens to reuse the device_id slot.
type RegenerateDeviceCommand RegisterDeviceCommand

// Output DTOs
type DeviceDTO struct {
	UserID     uuid.UUID
	DeviceID   string
	DeviceName string
	DeviceType string
	CreatedAt  time.Time
}

type DeviceSummaryDTO struct {
	DeviceID   string
	DeviceName string
	DeviceType string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

type DevicePublicInfoDTO struct {
	UserID   uuid.UUID
	DeviceID string

	IdentityKey []byte
	SigningKey  []byte

	SignedPrekeyID        uint32
	SignedPrekey          []byte
	SignedPrekeySignature []byte
}

type PrekeyBundleDTO struct {
	UserID   uuid.UUID
	DeviceID string

	IdentityKey []byte
	SigningKey  []byte

	SignedPrekeyID        uint32
	SignedPrekey          []byte
	SignedPrekeySignature []byte

	OneTimePrekeyID *uint32
	OneTimePrekey   []byte

	UsedFallback bool
}

type KeyBackupDTO struct {
	EncryptedBackup []byte
	IV              []byte
	AuthTag         []byte
	Salt            []byte
	Iterations      int
	DeviceCount     int
	BackupVersion   int
	UpdatedAt       time.Time
}

// BundleToDTO maps the repository bundle onto the transport shape.
func BundleToDTO(b *models.PrekeyBundle) *PrekeyBundleDTO {
	return &PrekeyBundleDTO{
		UserID:                b.UserID,
		DeviceID:              b.DeviceID,
		IdentityKey:           b.IdentityKey,
		SigningKey:            b.SigningKey,
		SignedPrekeyID:        b.SignedPrekeyID,
		SignedPrekey:          b.SignedPrekey,
		SignedPrekeySignature: b.SignedPrekeySignature,
		OneTimePrekeyID:       b.OneTimePrekeyID,
		OneTimePrekey:         b.OneTimePrekey,
		UsedFallback:          b.UsedFallback,
	}
}
