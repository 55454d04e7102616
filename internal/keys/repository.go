package keys

import (
	"context"

	"github.com/google/uuid"

	models "keydepot/internal/keys/model"
)

type KeyRepository interface {
	CreateDeviceKey(ctx context.Context, dk *models.DeviceKey) error
	GetDeviceKey(ctx context.Context, userID uuid.UUID, deviceID string) (*models.DeviceKey, error)
	ListDeviceKeys(ctx context.Context, userID uuid.UUID) ([]models.DeviceKey, error)
	// Idempotent: deleting an absent device is a successful no-op.
	DeleteDeviceKey(ctx context.Context, userID uuid.UUID, deviceID string) error
	DeviceExists(ctx context.Context, userID uuid.UUID, deviceID string) (bool, error)

	// Atomically retires the old DeviceKey row (cascading its prekey pool)
	// and creates the replacement under the same device_id slot.
	ReplaceDeviceKey(ctx context.Context, userID uuid.UUID, deviceID string, fresh *models.DeviceKey) error

	RotateSignedPrekey(ctx context.Context, deviceKeyID int64, keyID uint32, publicKey, signature []byte) error

	UploadOneTimePrekeys(ctx context.Context, deviceKeyID int64, prekeys []models.OneTimePrekey) error
	// Atomically claim the oldest unclaimed prekey and mark it retired.
	ClaimOneTimePrekey(ctx context.Context, deviceKeyID int64, claimerUser uuid.UUID, claimerDevice string) (*models.OneTimePrekey, error)
	CountAvailableOneTimePrekeys(ctx context.Context, deviceKeyID int64) (int, error)

	UpsertKeyBackup(ctx context.Context, backup *models.KeyBackup) error
	GetKeyBackup(ctx context.Context, userID uuid.UUID) (*models.KeyBackup, error)
	DeleteKeyBackup(ctx context.Context, userID uuid.UUID) error
}
