package errors

var (
	// Domain errors — used in usecase/repository
	ErrDeviceAlreadyExists = AlreadyExists("device is already registered")
	ErrDeviceNotFound      = NotFound("device not found")
	ErrInvalidSignature    = InvalidArg("signed prekey signature invalid")
	ErrDuplicateKeyID      = AlreadyExists("one-time prekey id already uploaded")
	ErrNoKeyAvailable      = FailedPrecondition("no one-time prekeys available")
	ErrCannotClaimOwn      = InvalidArg("cannot claim prekeys for own user")
	ErrNoBackupFound       = NotFound("no key backup found")
	ErrInvalidDeviceType   = InvalidArg("device type must be web, mobile or desktop")
	ErrInvalidIdentityKey  = InvalidArg("invalid identity key")
	ErrInvalidSigningKey   = InvalidArg("invalid signing key")
	ErrInvalidPrekey       = InvalidArg("invalid one-time prekey")
	ErrStalePrekeyID       = InvalidArg("signed prekey id must increase")

	// Deliberately uninformative: wrong password and corrupted blob are
	// indistinguishable to avoid a password-guessing oracle.
	ErrRestoreFailed = New(CodeFailedPrecondition, "could not restore backup")
)

func ErrBundleFetchFailed(cause error) error {
	return Wrap(CodeInternal, "failed to assemble prekey bundle", cause)
}

func ErrRegistrationFailed(cause error) error {
	return Wrap(CodeInternal, "device registration failed", cause)
}
