package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"testing"

	models "keydepot/internal/keys/model"
	"keydepot/pkg/logger"
)

var testDB *bun.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("keydepot"),
		postgres.WithUsername("keydepot"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	if err != nil {
		log.Printf("failed to get connection string, %v", err)
	}

	connector := pgdriver.NewConnector(pgdriver.WithDSN(connStr))
	sqlDB := sql.OpenDB(connector)
	testDB = bun.NewDB(sqlDB, pgdialect.New())

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	tables := []any{
		(*models.DeviceKey)(nil),
		(*models.OneTimePrekey)(nil),
		(*models.KeyBackup)(nil),
	}

	for _, t := range tables {
		if _, err := testDB.NewCreateTable().Model(t).IfNotExists().Exec(ctx); err != nil {
			testDB.Close()
			log.Fatalf("failed to create table for %T: %v", t, err)
		}
	}

	code := m.Run()

	testDB.Close()

	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	for _, table := range []string{"one_time_prekeys", "device_keys", "key_backups"} {
		_, err := testDB.ExecContext(context.Background(),
			fmt.Sprintf(`TRUNCATE TABLE %s RESTART IDENTITY CASCADE`, table))
		require.NoError(t, err)
	}
}

func patternBytes(n int, offset byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i) + offset
	}
	return b
}

func newDeviceKey(userID uuid.UUID, deviceID string) *models.DeviceKey {
	return &models.DeviceKey{
		UserID:                userID,
		DeviceID:              deviceID,
		SigningKey:            patternBytes(32, 1),
		IdentityKey:           patternBytes(32, 101),
		SignedPrekey:          patternBytes(32, 51),
		SignedPrekeyID:        1,
		SignedPrekeySignature: patternBytes(64, 33),
		DeviceName:            "test laptop",
		DeviceType:            models.DeviceTypeDesktop,
	}
}

func mustCreateDevice(t *testing.T, repo *KeyRepository, userID uuid.UUID, deviceID string) *models.DeviceKey {
	t.Helper()
	dk := newDeviceKey(userID, deviceID)
	require.NoError(t, repo.CreateDeviceKey(context.Background(), dk))
	return dk
}

func uploadPrekeyBatch(t *testing.T, repo *KeyRepository, deviceKeyID int64, n int) []models.OneTimePrekey {
	t.Helper()
	prekeys := make([]models.OneTimePrekey, n)
	for i := range prekeys {
		prekeys[i] = models.OneTimePrekey{
			KeyID:     uint32(i + 1),
			PublicKey: patternBytes(32, byte(i)),
		}
	}
	require.NoError(t, repo.UploadOneTimePrekeys(context.Background(), deviceKeyID, prekeys))
	return prekeys
}

func Test_DeviceKeyFuncs(t *testing.T) {
	repo := NewKeyRepository(testDB, logger.Logger{})
	userID := uuid.New()

	t.Run("create and get device key", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")

		fetched, err := repo.GetDeviceKey(context.Background(), userID, "laptop")
		require.NoError(t, err)
		assert.Equal(t, dk.ID, fetched.ID)
		assert.Equal(t, dk.SigningKey, fetched.SigningKey)
		assert.Equal(t, dk.IdentityKey, fetched.IdentityKey)
		assert.Equal(t, dk.SignedPrekey, fetched.SignedPrekey)
		assert.Equal(t, models.DeviceTypeDesktop, fetched.DeviceType)
		assert.False(t, fetched.CreatedAt.IsZero(), "created_at should be set by DB")
	})

	t.Run("get missing device", func(t *testing.T) {
		defer truncateAll(t)
		_, err := repo.GetDeviceKey(context.Background(), userID, "phantom")
		assert.ErrorIs(t, err, ErrDeviceNotFound)
	})

	t.Run("duplicate registration rejected", func(t *testing.T) {
		defer truncateAll(t)
		mustCreateDevice(t, repo, userID, "laptop")

		err := repo.CreateDeviceKey(context.Background(), newDeviceKey(userID, "laptop"))
		assert.ErrorIs(t, err, ErrDeviceAlreadyExists)
	})

	t.Run("device exists", func(t *testing.T) {
		defer truncateAll(t)
		mustCreateDevice(t, repo, userID, "laptop")

		exists, err := repo.DeviceExists(context.Background(), userID, "laptop")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.DeviceExists(context.Background(), userID, "phone")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("list devices ordered by creation", func(t *testing.T) {
		defer truncateAll(t)
		mustCreateDevice(t, repo, userID, "first")
		time.Sleep(10 * time.Millisecond)
		mustCreateDevice(t, repo, userID, "second")
		mustCreateDevice(t, repo, uuid.New(), "other-users-device")

		dks, err := repo.ListDeviceKeys(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, dks, 2)
		assert.Equal(t, "first", dks[0].DeviceID)
		assert.Equal(t, "second", dks[1].DeviceID)
	})

	t.Run("delete cascades prekeys and is idempotent", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")
		uploadPrekeyBatch(t, repo, dk.ID, 5)

		require.NoError(t, repo.DeleteDeviceKey(context.Background(), userID, "laptop"))

		_, err := repo.GetDeviceKey(context.Background(), userID, "laptop")
		assert.ErrorIs(t, err, ErrDeviceNotFound)

		orphans, err := testDB.NewSelect().
			Model((*models.OneTimePrekey)(nil)).
			Where("device_key_id = ?", dk.ID).
			Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, orphans)

		// Revoking again must succeed silently.
		require.NoError(t, repo.DeleteDeviceKey(context.Background(), userID, "laptop"))
	})
}

func Test_RotateSignedPrekey(t *testing.T) {
	repo := NewKeyRepository(testDB, logger.Logger{})
	userID := uuid.New()

	t.Run("rotation replaces the current prekey", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")

		newPub := patternBytes(32, 200)
		newSig := patternBytes(64, 150)
		require.NoError(t, repo.RotateSignedPrekey(context.Background(), dk.ID, 2, newPub, newSig))

		fetched, err := repo.GetDeviceKey(context.Background(), userID, "laptop")
		require.NoError(t, err)
		assert.Equal(t, uint32(2), fetched.SignedPrekeyID)
		assert.Equal(t, newPub, fetched.SignedPrekey)
		assert.Equal(t, newSig, fetched.SignedPrekeySignature)
	})

	t.Run("replayed rotation is rejected", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")

		require.NoError(t, repo.RotateSignedPrekey(context.Background(), dk.ID, 2, patternBytes(32, 200), patternBytes(64, 150)))

		err := repo.RotateSignedPrekey(context.Background(), dk.ID, 2, patternBytes(32, 210), patternBytes(64, 160))
		assert.ErrorIs(t, err, ErrStaleRotation)

		err = repo.RotateSignedPrekey(context.Background(), dk.ID, 1, patternBytes(32, 210), patternBytes(64, 160))
		assert.ErrorIs(t, err, ErrStaleRotation)
	})
}

func Test_OneTimePrekeyFuncs(t *testing.T) {
	repo := NewKeyRepository(testDB, logger.Logger{})
	userID := uuid.New()

	t.Run("upload and count", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")
		before := dk.LastSeenAt

		uploadPrekeyBatch(t, repo, dk.ID, 10)

		count, err := repo.CountAvailableOneTimePrekeys(context.Background(), dk.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, count)

		fetched, err := repo.GetDeviceKey(context.Background(), userID, "laptop")
		require.NoError(t, err)
		assert.True(t, fetched.LastSeenAt.After(before) || fetched.LastSeenAt.Equal(before))
	})

	t.Run("duplicate key ids rejected", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")
		uploadPrekeyBatch(t, repo, dk.ID, 5)

		err := repo.UploadOneTimePrekeys(context.Background(), dk.ID, []models.OneTimePrekey{
			{KeyID: 3, PublicKey: patternBytes(32, 77)},
		})
		assert.ErrorIs(t, err, ErrDuplicateKeyID)

		// Same key_id under a different device is fine.
		other := mustCreateDevice(t, repo, userID, "phone")
		err = repo.UploadOneTimePrekeys(context.Background(), other.ID, []models.OneTimePrekey{
			{KeyID: 3, PublicKey: patternBytes(32, 77)},
		})
		assert.NoError(t, err)
	})

	t.Run("claims are FIFO by upload order", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")
		uploadPrekeyBatch(t, repo, dk.ID, 5)

		claimer := uuid.New()
		for want := uint32(1); want <= 5; want++ {
			key, err := repo.ClaimOneTimePrekey(context.Background(), dk.ID, claimer, "claimer-device")
			require.NoError(t, err)
			assert.Equal(t, want, key.KeyID)
			require.NotNil(t, key.ClaimedAt)
			require.NotNil(t, key.ClaimedByUser)
			assert.Equal(t, claimer, *key.ClaimedByUser)
		}

		_, err := repo.ClaimOneTimePrekey(context.Background(), dk.ID, claimer, "claimer-device")
		assert.ErrorIs(t, err, ErrNoPrekeysAvailable)
	})

	t.Run("claimed keys stay retired", func(t *testing.T) {
		defer truncateAll(t)
		dk := mustCreateDevice(t, repo, userID, "laptop")
		uploadPrekeyBatch(t, repo, dk.ID, 3)

		seen := make(map[uint32]bool)
		for i := 0; i < 3; i++ {
			key, err := repo.ClaimOneTimePrekey(context.Background(), dk.ID, uuid.New(), "d")
			require.NoError(t, err)
			assert.False(t, seen[key.KeyID], "key %d claimed twice", key.KeyID)
			seen[key.KeyID] = true
		}

		count, err := repo.CountAvailableOneTimePrekeys(context.Background(), dk.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func Test_ClaimOneTimePrekey_Concurrent(t *testing.T) {
	repo := NewKeyRepository(testDB, logger.Logger{})
	userID := uuid.New()
	defer truncateAll(t)

	dk := mustCreateDevice(t, repo, userID, "laptop")
	const available = 10
	const claimers = 25
	uploadPrekeyBatch(t, repo, dk.ID, available)

	runClaims := func() (map[uint32]int, int) {
		var mu sync.Mutex
		claimed := make(map[uint32]int)
		exhausted := 0

		var wg sync.WaitGroup
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key, err := repo.ClaimOneTimePrekey(context.Background(), dk.ID, uuid.New(), "claimer")
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					exhausted++
					return
				}
				claimed[key.KeyID]++
			}()
		}
		wg.Wait()
		return claimed, exhausted
	}

	claimed, exhausted := runClaims()
	assert.Len(t, claimed, available, "every available key claimed exactly once")
	assert.Equal(t, claimers-available, exhausted)
	for keyID, n := range claimed {
		assert.Equal(t, 1, n, "key %d double-claimed", keyID)
	}

	// A second wave against the drained pool must find nothing.
	claimed, exhausted = runClaims()
	assert.Empty(t, claimed)
	assert.Equal(t, claimers, exhausted)
}

func Test_ReplaceDeviceKey(t *testing.T) {
	repo := NewKeyRepository(testDB, logger.Logger{})
	userID := uuid.New()
	defer truncateAll(t)

	old := mustCreateDevice(t, repo, userID, "laptop")
	uploadPrekeyBatch(t, repo, old.ID, 5)

	fresh := newDeviceKey(userID, "laptop")
	fresh.SigningKey = patternBytes(32, 201)
	fresh.IdentityKey = patternBytes(32, 211)
	require.NoError(t, repo.ReplaceDeviceKey(context.Background(), userID, "laptop", fresh))

	fetched, err := repo.GetDeviceKey(context.Background(), userID, "laptop")
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fetched.ID, "regeneration must create a new row")
	assert.Equal(t, fresh.IdentityKey, fetched.IdentityKey)

	// The old pool died with the old identity.
	count, err := repo.CountAvailableOneTimePrekeys(context.Background(), fetched.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.ClaimOneTimePrekey(context.Background(), fetched.ID, uuid.New(), "claimer")
	assert.ErrorIs(t, err, ErrNoPrekeysAvailable)
}

func Test_KeyBackupFuncs(t *testing.T) {
	repo := NewKeyRepository(testDB, logger.Logger{})
	userID := uuid.New()

	newBackup := func(blobSeed byte) *models.KeyBackup {
		return &models.KeyBackup{
			UserID:          userID,
			EncryptedBackup: patternBytes(128, blobSeed),
			BackupIV:        patternBytes(12, blobSeed),
			BackupAuthTag:   patternBytes(16, blobSeed),
			Salt:            patternBytes(16, blobSeed),
			Iterations:      600_000,
			DeviceCount:     2,
		}
	}

	t.Run("store and fetch", func(t *testing.T) {
		defer truncateAll(t)
		backup := newBackup(1)
		require.NoError(t, repo.UpsertKeyBackup(context.Background(), backup))

		fetched, err := repo.GetKeyBackup(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, backup.EncryptedBackup, fetched.EncryptedBackup)
		assert.Equal(t, backup.Salt, fetched.Salt)
		assert.Equal(t, 600_000, fetched.Iterations)
		assert.Equal(t, 1, fetched.BackupVersion)
	})

	t.Run("overwrite is last-writer-wins", func(t *testing.T) {
		defer truncateAll(t)
		require.NoError(t, repo.UpsertKeyBackup(context.Background(), newBackup(1)))
		second := newBackup(99)
		require.NoError(t, repo.UpsertKeyBackup(context.Background(), second))

		fetched, err := repo.GetKeyBackup(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, second.EncryptedBackup, fetched.EncryptedBackup)
		assert.Equal(t, 2, fetched.BackupVersion)

		total, err := testDB.NewSelect().Model((*models.KeyBackup)(nil)).Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, total, "old blob must be unrecoverable")
	})

	t.Run("fetch and delete missing backup", func(t *testing.T) {
		defer truncateAll(t)
		_, err := repo.GetKeyBackup(context.Background(), userID)
		assert.ErrorIs(t, err, ErrBackupNotFound)

		assert.NoError(t, repo.DeleteKeyBackup(context.Background(), userID))
	})

	t.Run("delete removes the backup", func(t *testing.T) {
		defer truncateAll(t)
		require.NoError(t, repo.UpsertKeyBackup(context.Background(), newBackup(1)))
		require.NoError(t, repo.DeleteKeyBackup(context.Background(), userID))

		_, err := repo.GetKeyBackup(context.Background(), userID)
		assert.ErrorIs(t, err, ErrBackupNotFound)
	})
}
