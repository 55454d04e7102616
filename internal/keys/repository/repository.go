package repository

import (
	"context"
	"database/sql"
	"time"

	models "keydepot/internal/keys/model"
	"keydepot/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type KeyRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

var (
	ErrNoPrekeysAvailable  = errors.New("no one-time prekeys available")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrBackupNotFound      = errors.New("key backup not found")
	ErrDuplicateKeyID      = errors.New("one-time prekey id already exists for device")
	ErrDeviceAlreadyExists = errors.New("device already registered")
	ErrStaleRotation       = errors.New("signed prekey id did not increase")
)

func NewKeyRepository(db *bun.DB, logger logger.Logger) *KeyRepository {
	return &KeyRepository{
		db:     db,
		logger: &logger,
	}
}

// uniqueViolation reports the Postgres duplicate-key error class.
func uniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}

func (r *KeyRepository) CreateDeviceKey(ctx context.Context, dk *models.DeviceKey) error {
	_, err := r.db.NewInsert().Model(dk).Returning("*").Exec(ctx)
	if err != nil {
		if uniqueViolation(err) {
			return ErrDeviceAlreadyExists
		}
		return errors.Wrap(err, "keyRepo.CreateDeviceKey.Insert: ")
	}
	return nil
}

func (r *KeyRepository) GetDeviceKey(ctx context.Context, userID uuid.UUID, deviceID string) (*models.DeviceKey, error) {
	dk := new(models.DeviceKey)
	err := r.db.NewSelect().
		Model(dk).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, errors.Wrap(err, "keyRepo.GetDeviceKey.Scan: ")
	}
	return dk, nil
}

func (r *KeyRepository) ListDeviceKeys(ctx context.Context, userID uuid.UUID) ([]models.DeviceKey, error) {
	var dks []models.DeviceKey
	err := r.db.NewSelect().
		Model(&dks).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "keyRepo.ListDeviceKeys.Scan: ")
	}
	return dks, nil
}

// DeleteDeviceKey removes a device and its whole prekey pool. Revoking a
// device that does not exist is a no-op, not an error, so revocation never
// leaks whether a device_id was registered.
func (r *KeyRepository) DeleteDeviceKey(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dk := new(models.DeviceKey)
		err := tx.NewSelect().
			Model(dk).
			Where("user_id = ? AND device_id = ?", userID, deviceID).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "keyRepo.DeleteDeviceKey.Select: ")
		}

		_, err = tx.NewDelete().
			Model((*models.OneTimePrekey)(nil)).
			Where("device_key_id = ?", dk.ID).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "keyRepo.DeleteDeviceKey.DeletePrekeys: ")
		}

		_, err = tx.NewDelete().Model(dk).WherePK().Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "keyRepo.DeleteDeviceKey.DeleteDevice: ")
		}
		return nil
	})
}

func (r *KeyRepository) DeviceExists(ctx context.Context, userID uuid.UUID, deviceID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.DeviceKey)(nil)).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, "keyRepo.DeviceExists: ")
	}
	return exists, nil
}

// ReplaceDeviceKey retires the old identity under (user_id, device_id) and
// installs fresh in its place, in one transaction. The old pool goes with
// the old row; a claim racing this either commits against the old identity
// before the delete or finds nothing after it.
func (r *KeyRepository) ReplaceDeviceKey(ctx context.Context, userID uuid.UUID, deviceID string, fresh *models.DeviceKey) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		old := new(models.DeviceKey)
		err := tx.NewSelect().
			Model(old).
			Where("user_id = ? AND device_id = ?", userID, deviceID).
			For("UPDATE").
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.Wrap(err, "keyRepo.ReplaceDeviceKey.Select: ")
		}

		if err == nil {
			_, err = tx.NewDelete().
				Model((*models.OneTimePrekey)(nil)).
				Where("device_key_id = ?", old.ID).
				Exec(ctx)
			if err != nil {
				return errors.Wrap(err, "keyRepo.ReplaceDeviceKey.DeletePrekeys: ")
			}
			_, err = tx.NewDelete().Model(old).WherePK().Exec(ctx)
			if err != nil {
				return errors.Wrap(err, "keyRepo.ReplaceDeviceKey.DeleteOld: ")
			}
		}

		fresh.UserID = userID
		fresh.DeviceID = deviceID
		_, err = tx.NewInsert().Model(fresh).Returning("*").Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "keyRepo.ReplaceDeviceKey.InsertFresh: ")
		}
		return nil
	})
}

// RotateSignedPrekey swaps the current signed prekey in place. The id must
// strictly increase; a replayed or out-of-order rotation matches zero rows.
func (r *KeyRepository) RotateSignedPrekey(ctx context.Context, deviceKeyID int64, keyID uint32, publicKey, signature []byte) error {
	res, err := r.db.NewUpdate().
		Model((*models.DeviceKey)(nil)).
		Set("signed_prekey = ?", publicKey).
		Set("signed_prekey_id = ?", keyID).
		Set("signed_prekey_signature = ?", signature).
		Where("id = ? AND signed_prekey_id < ?", deviceKeyID, keyID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "keyRepo.RotateSignedPrekey.Update: ")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "keyRepo.RotateSignedPrekey.RowsAffected: ")
	}
	if affected == 0 {
		return ErrStaleRotation
	}
	return nil
}

func (r *KeyRepository) UploadOneTimePrekeys(ctx context.Context, deviceKeyID int64, prekeys []models.OneTimePrekey) error {
	if len(prekeys) == 0 {
		return nil
	}

	keyIDs := make([]uint32, 0, len(prekeys))
	for i := range prekeys {
		prekeys[i].DeviceKeyID = deviceKeyID
		keyIDs = append(keyIDs, prekeys[i].KeyID)
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Caller-assigned key_ids must be fresh; the unique index on
		// (device_key_id, key_id) backstops this check under races.
		taken, err := tx.NewSelect().
			Model((*models.OneTimePrekey)(nil)).
			Where("device_key_id = ? AND key_id IN (?)", deviceKeyID, bun.In(keyIDs)).
			Count(ctx)
		if err != nil {
			return errors.Wrap(err, "keyRepo.UploadOneTimePrekeys.Count: ")
		}
		if taken > 0 {
			return ErrDuplicateKeyID
		}

		_, err = tx.NewInsert().Model(&prekeys).Returning("*").Exec(ctx)
		if err != nil {
			if uniqueViolation(err) {
				return ErrDuplicateKeyID
			}
			return errors.Wrap(err, "keyRepo.UploadOneTimePrekeys.Insert: ")
		}

		_, err = tx.NewUpdate().
			Model((*models.DeviceKey)(nil)).
			Set("last_seen_at = ?", time.Now().UTC()).
			Where("id = ?", deviceKeyID).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "keyRepo.UploadOneTimePrekeys.TouchDevice: ")
		}
		return nil
	})
}

// ClaimOneTimePrekey hands out the oldest unclaimed key exactly once.
//
// "FOR UPDATE" locks the selected row for the rest of the transaction;
// "SKIP LOCKED" (Postgres) steps over rows another in-flight claim already
// holds, so concurrent claimers contend only on the specific row each one
// picked and nobody blocks on anybody else's transaction.
func (r *KeyRepository) ClaimOneTimePrekey(ctx context.Context, deviceKeyID int64, claimerUser uuid.UUID, claimerDevice string) (*models.OneTimePrekey, error) {
	key := new(models.OneTimePrekey)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(key).
			Where("device_key_id = ? AND claimed_at IS NULL", deviceKeyID).
			Order("id ASC"). // oldest first: give the device time to replenish
			Limit(1).
			For("UPDATE SKIP LOCKED").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoPrekeysAvailable
		}
		if err != nil {
			return errors.Wrap(err, "keyRepo.ClaimOneTimePrekey.Select: ")
		}

		now := time.Now().UTC()
		key.ClaimedAt = &now
		key.ClaimedByUser = &claimerUser
		key.ClaimedByDevice = &claimerDevice

		_, err = tx.NewUpdate().
			Model(key).
			Column("claimed_at", "claimed_by_user", "claimed_by_device").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "keyRepo.ClaimOneTimePrekey.Update: ")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (r *KeyRepository) CountAvailableOneTimePrekeys(ctx context.Context, deviceKeyID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.OneTimePrekey)(nil)).
		Where("device_key_id = ? AND claimed_at IS NULL", deviceKeyID).
		Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "keyRepo.CountAvailableOneTimePrekeys: ")
	}
	return count, nil
}

// UpsertKeyBackup is last-writer-wins: a new upload fully replaces the
// previous blob and bumps the version.
func (r *KeyRepository) UpsertKeyBackup(ctx context.Context, backup *models.KeyBackup) error {
	backup.BackupVersion = 1
	backup.UpdatedAt = time.Now().UTC()

	_, err := r.db.NewInsert().
		Model(backup).
		On("CONFLICT (user_id) DO UPDATE").
		Set("encrypted_backup = EXCLUDED.encrypted_backup").
		Set("backup_iv = EXCLUDED.backup_iv").
		Set("backup_auth_tag = EXCLUDED.backup_auth_tag").
		Set("salt = EXCLUDED.salt").
		Set("iterations = EXCLUDED.iterations").
		Set("device_count = EXCLUDED.device_count").
		Set("backup_version = key_backup.backup_version + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "keyRepo.UpsertKeyBackup.Exec: ")
	}
	return nil
}

func (r *KeyRepository) GetKeyBackup(ctx context.Context, userID uuid.UUID) (*models.KeyBackup, error) {
	backup := new(models.KeyBackup)
	err := r.db.NewSelect().Model(backup).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBackupNotFound
		}
		return nil, errors.Wrap(err, "keyRepo.GetKeyBackup.Scan: ")
	}
	return backup, nil
}

func (r *KeyRepository) DeleteKeyBackup(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*models.KeyBackup)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "keyRepo.DeleteKeyBackup.Exec: ")
	}
	return nil
}
