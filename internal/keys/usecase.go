package keys

import (
	"context"

	"github.com/google/uuid"
)

type KeyUsecase interface {
	// Create-only: an existing (user, device) pair is rejected, rotation is
	// a separate operation. The signed prekey signature must verify against
	// the uploaded signing key or nothing is written.
	RegisterDevice(ctx context.Context, cmd RegisterDeviceCommand) (*DeviceDTO, error)

	GetDeviceBundleInfo(ctx context.Context, userID uuid.UUID, deviceID string) (*DevicePublicInfoDTO, error)
	ListDevices(ctx context.Context, userID uuid.UUID) ([]DeviceSummaryDTO, error)
	RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error

	RotateSignedPrekey(ctx context.Context, cmd RotateSignedPrekeyCommand) error

	// Appends fresh one-time prekeys and bumps the device's last_seen_at.
	UploadPrekeys(ctx context.Context, cmd UploadPrekeysCommand) (int, error)
	CountAvailablePrekeys(ctx context.Context, userID uuid.UUID, deviceID string) (int, error)

	// Assembles the prekey bundle for a session initiator. Pool exhaustion
	// is not an error: the bundle comes back with UsedFallback set.
	BootstrapSession(ctx context.Context, cmd BootstrapSessionCommand) (*PrekeyBundleDTO, error)

	StoreBackup(ctx context.Context, userID uuid.UUID, cmd StoreBackupCommand) error
	FetchBackup(ctx context.Context, userID uuid.UUID) (*KeyBackupDTO, error)
	DeleteBackup(ctx context.Context, userID uuid.UUID) error

	// Device-mismatch resolution: retires the old identity under this
	// device_id and installs a brand-new one. All previously uploaded
	// one-time prekeys for the slot become invalid.
	RegenerateDevice(ctx context.Context, cmd RegenerateDeviceCommand) (*DeviceDTO, error)
}
