package http

import (
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r chi.Router, h *Handlers) {
	// Device key registry
	r.Post("/api/keys/devices", h.RegisterDevice)
	r.Get("/api/keys/devices", h.ListDevices)
	r.Delete("/api/keys/devices/{deviceID}", h.RevokeDevice)
	r.Post("/api/keys/devices/regenerate", h.RegenerateDevice)

	// Prekey pool and rotation (always against the caller's own device)
	r.Put("/api/keys/signed-prekey", h.RotateSignedPrekey)
	r.Post("/api/keys/prekeys", h.UploadPrekeys)
	r.Get("/api/keys/prekeys/count", h.CountPrekeys)

	// Session bootstrap and identity lookup
	r.Get("/api/keys/bundle/{userID}/{deviceID}", h.FetchBundle)
	r.Get("/api/keys/devices/{userID}/{deviceID}", h.DeviceInfo)

	// Key backup vault
	r.Put("/api/keys/backup", h.StoreBackup)
	r.Get("/api/keys/backup", h.FetchBackup)
	r.Delete("/api/keys/backup", h.DeleteBackup)
}
