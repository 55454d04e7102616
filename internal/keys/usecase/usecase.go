package usecase

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"regexp"

	"keydepot/config"
	"keydepot/internal/keys"
	models "keydepot/internal/keys/model"
	"keydepot/internal/keys/repository"
	"keydepot/pkg/errors"
	"keydepot/pkg/logger"

	"github.com/google/uuid"
)

const curve25519KeySize = 32

type KeyUsecase struct {
	repo   keys.KeyRepository
	logger logger.Logger
	config config.Config
}

func NewKeyUsecase(repo keys.KeyRepository, logger logger.Logger, config config.Config) *KeyUsecase {
	return &KeyUsecase{repo: repo, logger: logger, config: config}
}

var deviceIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validateDeviceID(deviceID string) error {
	if !deviceIDRegex.MatchString(deviceID) {
		return errors.InvalidArg("device id must be 1-64 chars, letters, numbers, dashes and underscores only")
	}
	return nil
}

func decodeBase64(b64 string, expectedLen int) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(data) != expectedLen {
		return nil, fmt.Errorf("expected %d bytes, got %d", expectedLen, len(data))
	}
	return data, nil
}

// buildDeviceKey validates a registration-shaped command and assembles the
// model. The signed prekey signature must verify against the uploaded
// signing key; nothing is returned otherwise, so no partial device can ever
// be written.
func (uc *KeyUsecase) buildDeviceKey(cmd keys.RegisterDeviceCommand) (*models.DeviceKey, error) {
	if err := validateDeviceID(cmd.DeviceID); err != nil {
		return nil, err
	}
	deviceType := models.DeviceType(cmd.DeviceType)
	if !deviceType.Valid() {
		return nil, errors.ErrInvalidDeviceType
	}

	signingKey, err := decodeBase64(cmd.SigningKey, ed25519.PublicKeySize)
	if err != nil {
		return nil, errors.ErrInvalidSigningKey
	}
	identityKey, err := decodeBase64(cmd.IdentityKey, curve25519KeySize)
	if err != nil {
		return nil, errors.ErrInvalidIdentityKey
	}
	signedPrekey, err := decodeBase64(cmd.SignedPrekey.PublicKey, curve25519KeySize)
	if err != nil {
		return nil, errors.InvalidArg("invalid signed prekey")
	}

	if !ed25519.Verify(signingKey, signedPrekey, cmd.SignedPrekey.Signature) {
		return nil, errors.ErrInvalidSignature
	}

	return &models.DeviceKey{
		UserID:                cmd.UserID,
		DeviceID:              cmd.DeviceID,
		SigningKey:            signingKey,
		IdentityKey:           identityKey,
		SignedPrekey:          signedPrekey,
		SignedPrekeyID:        cmd.SignedPrekey.KeyID,
		SignedPrekeySignature: cmd.SignedPrekey.Signature,
		DeviceName:            cmd.DeviceName,
		DeviceType:            deviceType,
	}, nil
}

func (uc *KeyUsecase) RegisterDevice(ctx context.Context, cmd keys.RegisterDeviceCommand) (*keys.DeviceDTO, error) {
	dk, err := uc.buildDeviceKey(cmd)
	if err != nil {
		return nil, err
	}

	if exists, err := uc.repo.DeviceExists(ctx, cmd.UserID, cmd.DeviceID); err != nil {
		uc.logger.Error("database error checking device", "err", err)
		return nil, errors.Internal("internal server error")
	} else if exists {
		return nil, errors.ErrDeviceAlreadyExists
	}

	if err := uc.repo.CreateDeviceKey(ctx, dk); err != nil {
		if errors.Is(err, repository.ErrDeviceAlreadyExists) {
			return nil, errors.ErrDeviceAlreadyExists
		}
		uc.logger.Errorf("error while saving device key: %v", err)
		return nil, errors.ErrRegistrationFailed(errors.Internal("database error"))
	}

	return &keys.DeviceDTO{
		UserID:     dk.UserID,
		DeviceID:   dk.DeviceID,
		DeviceName: dk.DeviceName,
		DeviceType: string(dk.DeviceType),
		CreatedAt:  dk.CreatedAt,
	}, nil
}

func (uc *KeyUsecase) GetDeviceBundleInfo(ctx context.Context, userID uuid.UUID, deviceID string) (*keys.DevicePublicInfoDTO, error) {
	dk, err := uc.repo.GetDeviceKey(ctx, userID, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, errors.ErrDeviceNotFound
		}
		uc.logger.Error("failed to load device key", "err", err)
		return nil, errors.Internal("internal server error")
	}
	return &keys.DevicePublicInfoDTO{
		UserID:                dk.UserID,
		DeviceID:              dk.DeviceID,
		IdentityKey:           dk.IdentityKey,
		SigningKey:            dk.SigningKey,
		SignedPrekeyID:        dk.SignedPrekeyID,
		SignedPrekey:          dk.SignedPrekey,
		SignedPrekeySignature: dk.SignedPrekeySignature,
	}, nil
}

func (uc *KeyUsecase) ListDevices(ctx context.Context, userID uuid.UUID) ([]keys.DeviceSummaryDTO, error) {
	dks, err := uc.repo.ListDeviceKeys(ctx, userID)
	if err != nil {
		uc.logger.Error("failed to list devices", "err", err)
		return nil, errors.Internal("internal server error")
	}
	summaries := make([]keys.DeviceSummaryDTO, 0, len(dks))
	for _, dk := range dks {
		summaries = append(summaries, keys.DeviceSummaryDTO{
			DeviceID:   dk.DeviceID,
			DeviceName: dk.DeviceName,
			DeviceType: string(dk.DeviceType),
			CreatedAt:  dk.CreatedAt,
			LastSeenAt: dk.LastSeenAt,
		})
	}
	return summaries, nil
}

func (uc *KeyUsecase) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	if err := uc.repo.DeleteDeviceKey(ctx, userID, deviceID); err != nil {
		uc.logger.Error("failed to revoke device", "err", err)
		return errors.Internal("internal server error")
	}
	return nil
}

func (uc *KeyUsecase) RotateSignedPrekey(ctx context.Context, cmd keys.RotateSignedPrekeyCommand) error {
	dk, err := uc.repo.GetDeviceKey(ctx, cmd.UserID, cmd.DeviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return errors.ErrDeviceNotFound
		}
		uc.logger.Error("failed to load device for rotation", "err", err)
		return errors.Internal("internal server error")
	}

	publicKey, err := decodeBase64(cmd.Prekey.PublicKey, curve25519KeySize)
	if err != nil {
		return errors.InvalidArg("invalid signed prekey")
	}
	if !ed25519.Verify(dk.SigningKey, publicKey, cmd.Prekey.Signature) {
		return errors.ErrInvalidSignature
	}

	err = uc.repo.RotateSignedPrekey(ctx, dk.ID, cmd.Prekey.KeyID, publicKey, cmd.Prekey.Signature)
	if err != nil {
		if errors.Is(err, repository.ErrStaleRotation) {
			return errors.ErrStalePrekeyID
		}
		uc.logger.Error("failed to rotate signed prekey", "err", err)
		return errors.Internal("internal server error")
	}
	return nil
}

func (uc *KeyUsecase) UploadPrekeys(ctx context.Context, cmd keys.UploadPrekeysCommand) (int, error) {
	dk, err := uc.repo.GetDeviceKey(ctx, cmd.UserID, cmd.DeviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return 0, errors.ErrDeviceNotFound
		}
		uc.logger.Error("failed to load device for prekey upload", "err", err)
		return 0, errors.Internal("internal server error")
	}

	if max := uc.config.Prekeys.MaxBatchSize; max > 0 && len(cmd.Prekeys) > max {
		return 0, errors.InvalidArg(fmt.Sprintf("at most %d prekeys per upload", max))
	}

	prekeys := make([]models.OneTimePrekey, 0, len(cmd.Prekeys))
	seenKeyIDs := make(map[uint32]bool)
	for _, k := range cmd.Prekeys {
		if seenKeyIDs[k.KeyID] {
			return 0, errors.ErrDuplicateKeyID
		}
		seenKeyIDs[k.KeyID] = true

		pub, err := decodeBase64(k.PublicKey, curve25519KeySize)
		if err != nil {
			return 0, errors.ErrInvalidPrekey
		}
		prekeys = append(prekeys, models.OneTimePrekey{
			KeyID:     k.KeyID,
			PublicKey: pub,
		})
	}

	if err := uc.repo.UploadOneTimePrekeys(ctx, dk.ID, prekeys); err != nil {
		if errors.Is(err, repository.ErrDuplicateKeyID) {
			return 0, errors.ErrDuplicateKeyID
		}
		uc.logger.Error("failed to upload one-time prekeys", "err", err)
		return 0, errors.Internal("internal server error")
	}
	return len(prekeys), nil
}

func (uc *KeyUsecase) CountAvailablePrekeys(ctx context.Context, userID uuid.UUID, deviceID string) (int, error) {
	dk, err := uc.repo.GetDeviceKey(ctx, userID, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return 0, errors.ErrDeviceNotFound
		}
		uc.logger.Error("failed to load device for count", "err", err)
		return 0, errors.Internal("internal server error")
	}
	count, err := uc.repo.CountAvailableOneTimePrekeys(ctx, dk.ID)
	if err != nil {
		uc.logger.Error("failed to count prekeys", "err", err)
		return 0, errors.Internal("internal server error")
	}
	return count, nil
}

// BootstrapSession assembles the X3DH bundle for a session initiator. The
// only side effect is the one-time prekey claim; an exhausted pool degrades
// to the signed prekey instead of failing the caller.
func (uc *KeyUsecase) BootstrapSession(ctx context.Context, cmd keys.BootstrapSessionCommand) (*keys.PrekeyBundleDTO, error) {
	if cmd.TargetUser == cmd.ClaimerUser {
		return nil, errors.ErrCannotClaimOwn
	}

	dk, err := uc.repo.GetDeviceKey(ctx, cmd.TargetUser, cmd.TargetDevice)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, errors.ErrDeviceNotFound
		}
		return nil, errors.ErrBundleFetchFailed(err)
	}

	bundle := &models.PrekeyBundle{
		UserID:                dk.UserID,
		DeviceID:              dk.DeviceID,
		IdentityKey:           dk.IdentityKey,
		SigningKey:            dk.SigningKey,
		SignedPrekeyID:        dk.SignedPrekeyID,
		SignedPrekey:          dk.SignedPrekey,
		SignedPrekeySignature: dk.SignedPrekeySignature,
	}

	otpk, err := uc.repo.ClaimOneTimePrekey(ctx, dk.ID, cmd.ClaimerUser, cmd.ClaimerDevice)
	switch {
	case err == nil:
		bundle.OneTimePrekey = otpk.PublicKey
		keyID := otpk.KeyID
		bundle.OneTimePrekeyID = &keyID
	case errors.Is(err, repository.ErrNoPrekeysAvailable):
		uc.logger.Warn("one-time prekey pool exhausted, serving fallback bundle",
			"target_user", cmd.TargetUser, "target_device", cmd.TargetDevice)
		bundle.UsedFallback = true
	default:
		return nil, errors.ErrBundleFetchFailed(err)
	}

	return keys.BundleToDTO(bundle), nil
}

func (uc *KeyUsecase) StoreBackup(ctx context.Context, userID uuid.UUID, cmd keys.StoreBackupCommand) error {
	if len(cmd.EncryptedBackup) == 0 || len(cmd.IV) == 0 || len(cmd.AuthTag) == 0 {
		return errors.InvalidArg("encrypted backup, iv and auth tag are required")
	}
	if len(cmd.Salt) == 0 || cmd.Iterations <= 0 {
		return errors.InvalidArg("salt and a positive iteration count are required")
	}

	backup := &models.KeyBackup{
		UserID:          userID,
		EncryptedBackup: cmd.EncryptedBackup,
		BackupIV:        cmd.IV,
		BackupAuthTag:   cmd.AuthTag,
		Salt:            cmd.Salt,
		Iterations:      cmd.Iterations,
		DeviceCount:     cmd.DeviceCount,
	}
	if err := uc.repo.UpsertKeyBackup(ctx, backup); err != nil {
		uc.logger.Error("failed to store key backup", "err", err)
		return errors.Internal("internal server error")
	}
	return nil
}

func (uc *KeyUsecase) FetchBackup(ctx context.Context, userID uuid.UUID) (*keys.KeyBackupDTO, error) {
	backup, err := uc.repo.GetKeyBackup(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBackupNotFound) {
			return nil, errors.ErrNoBackupFound
		}
		uc.logger.Error("failed to fetch key backup", "err", err)
		return nil, errors.Internal("internal server error")
	}
	return &keys.KeyBackupDTO{
		EncryptedBackup: backup.EncryptedBackup,
		IV:              backup.BackupIV,
		AuthTag:         backup.BackupAuthTag,
		Salt:            backup.Salt,
		Iterations:      backup.Iterations,
		DeviceCount:     backup.DeviceCount,
		BackupVersion:   backup.BackupVersion,
		UpdatedAt:       backup.UpdatedAt,
	}, nil
}

func (uc *KeyUsecase) DeleteBackup(ctx context.Context, userID uuid.UUID) error {
	if err := uc.repo.DeleteKeyBackup(ctx, userID); err != nil {
		uc.logger.Error("failed to delete key backup", "err", err)
		return errors.Internal("internal server error")
	}
	return nil
}

// RegenerateDevice resolves a device mismatch by installing a brand-new
// cryptographic identity under the existing device_id slot. The old row and
// its entire prekey pool are retired; contacts who verified the old identity
// have to re-verify, which the trust collaborator is told about out of band.
func (uc *KeyUsecase) RegenerateDevice(ctx context.Context, cmd keys.RegenerateDeviceCommand) (*keys.DeviceDTO, error) {
	dk, err := uc.buildDeviceKey(keys.RegisterDeviceCommand(cmd))
	if err != nil {
		return nil, err
	}

	if err := uc.repo.ReplaceDeviceKey(ctx, cmd.UserID, cmd.DeviceID, dk); err != nil {
		uc.logger.Errorf("error while regenerating device key: %v", err)
		return nil, errors.ErrRegistrationFailed(errors.Internal("database error"))
	}

	uc.logger.Info("device identity regenerated, contacts must re-verify",
		"user_id", cmd.UserID, "device_id", cmd.DeviceID)

	return &keys.DeviceDTO{
		UserID:     dk.UserID,
		DeviceID:   dk.DeviceID,
		DeviceName: dk.DeviceName,
		DeviceType: string(dk.DeviceType),
		CreatedAt:  dk.CreatedAt,
	}, nil
}
