package models

import (
	"time"

	"github.com/google/uuid"
)

type OneTimePrekey struct {
	ID          int64      `bun:",pk,autoincrement"`
	DeviceKeyID int64      `bun:",notnull,unique:device_key"`
	DeviceKey   *DeviceKey `bun:"rel:belongs-to,join:device_key_id=id,on_delete:CASCADE"`

	KeyID     uint32 `bun:",notnull,unique:device_key"`
	PublicKey []byte `bun:",notnull"` // 32 bytes Curve25519

	// Set exactly once; never cleared. A claimed key is permanently retired.
	ClaimedAt       *time.Time `bun:",nullzero"`
	ClaimedByUser   *uuid.UUID `bun:",nullzero,type:uuid"`
	ClaimedByDevice *string    `bun:",nullzero"`

	UploadedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
