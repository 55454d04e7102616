package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"keydepot/internal/keys"
	"keydepot/pkg/errors"
	"keydepot/pkg/logger"
)

// Handlers exposes the key-distribution operations over HTTP. The upstream
// auth layer has already authenticated the caller and forwards the identity
// in X-User-ID / X-Device-ID; nothing here re-checks credentials.
type Handlers struct {
	uc     keys.KeyUsecase
	logger logger.Logger
}

func NewHandlers(uc keys.KeyUsecase, logger logger.Logger) *Handlers {
	return &Handlers{uc: uc, logger: logger}
}

type caller struct {
	UserID   uuid.UUID
	DeviceID string
}

func callerFrom(r *http.Request) (caller, error) {
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return caller{}, errors.Unauthorized("missing or malformed X-User-ID")
	}
	deviceID := r.Header.Get("X-Device-ID")
	if deviceID == "" {
		return caller{}, errors.Unauthorized("missing X-Device-ID")
	}
	return caller{UserID: userID, DeviceID: deviceID}, nil
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.CodeInvalidArgument:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAlreadyExists:
		return http.StatusConflict
	case errors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case errors.CodePermissionDenied:
		return http.StatusForbidden
	case errors.CodeFailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(code),
		"message": err.Error(),
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			h.logger.Error("failed to encode response", "err", err)
		}
	}
}

type signedPrekeyRequest struct {
	KeyID     uint32 `json:"key_id"`
	PublicKey string `json:"public_key"`
	Signature []byte `json:"signature"`
}

type registerDeviceRequest struct {
	IdentityKey  string              `json:"identity_key"`
	SigningKey   string              `json:"signing_key"`
	SignedPrekey signedPrekeyRequest `json:"signed_prekey"`
	DeviceName   string              `json:"device_name"`
	DeviceType   string              `json:"device_type"`
}

func (h *Handlers) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidArg("malformed request body"))
		return
	}

	dto, err := h.uc.RegisterDevice(r.Context(), keys.RegisterDeviceCommand{
		UserID:      c.UserID,
		DeviceID:    c.DeviceID,
		IdentityKey: req.IdentityKey,
		SigningKey:  req.SigningKey,
		SignedPrekey: keys.SignedPrekeyUpload{
			KeyID:     req.SignedPrekey.KeyID,
			PublicKey: req.SignedPrekey.PublicKey,
			Signature: req.SignedPrekey.Signature,
		},
		DeviceName: req.DeviceName,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, dto)
}

func (h *Handlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	devices, err := h.uc.ListDevices(r.Context(), c.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (h *Handlers) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	deviceID := chi.URLParam(r, "deviceID")
	if err := h.uc.RevokeDevice(r.Context(), c.UserID, deviceID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) RegenerateDevice(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidArg("malformed request body"))
		return
	}

	dto, err := h.uc.RegenerateDevice(r.Context(), keys.RegenerateDeviceCommand{
		UserID:      c.UserID,
		DeviceID:    c.DeviceID,
		IdentityKey: req.IdentityKey,
		SigningKey:  req.SigningKey,
		SignedPrekey: keys.SignedPrekeyUpload{
			KeyID:     req.SignedPrekey.KeyID,
			PublicKey: req.SignedPrekey.PublicKey,
			Signature: req.SignedPrekey.Signature,
		},
		DeviceName: req.DeviceName,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto)
}

func (h *Handlers) RotateSignedPrekey(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req signedPrekeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidArg("malformed request body"))
		return
	}
	err = h.uc.RotateSignedPrekey(r.Context(), keys.RotateSignedPrekeyCommand{
		UserID:   c.UserID,
		DeviceID: c.DeviceID,
		Prekey: keys.SignedPrekeyUpload{
			KeyID:     req.KeyID,
			PublicKey: req.PublicKey,
			Signature: req.Signature,
		},
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

type uploadPrekeysRequest struct {
	Prekeys []struct {
		KeyID     uint32 `json:"key_id"`
		PublicKey string `json:"public_key"`
	} `json:"prekeys"`
}

func (h *Handlers) UploadPrekeys(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req uploadPrekeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidArg("malformed request body"))
		return
	}

	uploads := make([]keys.OneTimePrekeyUpload, 0, len(req.Prekeys))
	for _, p := range req.Prekeys {
		uploads = append(uploads, keys.OneTimePrekeyUpload{KeyID: p.KeyID, PublicKey: p.PublicKey})
	}

	n, err := h.uc.UploadPrekeys(r.Context(), keys.UploadPrekeysCommand{
		UserID:   c.UserID,
		DeviceID: c.DeviceID,
		Prekeys:  uploads,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"uploaded": n})
}

func (h *Handlers) CountPrekeys(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	count, err := h.uc.CountAvailablePrekeys(r.Context(), c.UserID, c.DeviceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"available": count})
}

// DeviceInfo exposes a device's long-term public keys without touching the
// one-time prekey pool. Useful for identity verification displays.
func (h *Handlers) DeviceInfo(w http.ResponseWriter, r *http.Request) {
	targetUser, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, errors.InvalidArg("malformed target user id"))
		return
	}
	info, err := h.uc.GetDeviceBundleInfo(r.Context(), targetUser, chi.URLParam(r, "deviceID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handlers) FetchBundle(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	targetUser, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, errors.InvalidArg("malformed target user id"))
		return
	}
	bundle, err := h.uc.BootstrapSession(r.Context(), keys.BootstrapSessionCommand{
		TargetUser:    targetUser,
		TargetDevice:  chi.URLParam(r, "deviceID"),
		ClaimerUser:   c.UserID,
		ClaimerDevice: c.DeviceID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bundle)
}

type storeBackupRequest struct {
	EncryptedBackup []byte `json:"encrypted_backup"`
	IV              []byte `json:"iv"`
	AuthTag         []byte `json:"auth_tag"`
	Salt            []byte `json:"salt"`
	Iterations      int    `json:"iterations"`
	DeviceCount     int    `json:"device_count"`
}

func (h *Handlers) StoreBackup(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req storeBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidArg("malformed request body"))
		return
	}
	err = h.uc.StoreBackup(r.Context(), c.UserID, keys.StoreBackupCommand{
		EncryptedBackup: req.EncryptedBackup,
		IV:              req.IV,
		AuthTag:         req.AuthTag,
		Salt:            req.Salt,
		Iterations:      req.Iterations,
		DeviceCount:     req.DeviceCount,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) FetchBackup(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	backup, err := h.uc.FetchBackup(r.Context(), c.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, backup)
}

func (h *Handlers) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	c, err := callerFrom(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.uc.DeleteBackup(r.Context(), c.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}
