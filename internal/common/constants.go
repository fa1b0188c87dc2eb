package common

import "time"

// AccessTokenHeaderName is the HTTP header used to carry the staff access
// token on outbound requests.
const AccessTokenHeaderName = "Authorization"

// CacheStalenessWindow is the maximum age of a cached collection snapshot.
// Snapshots older than this are treated as absent and deleted on access.
const CacheStalenessWindow = 24 * time.Hour

// Idle-lock timeout bounds, in minutes. SetTimeoutMinutes rejects values
// outside [MinLockTimeoutMinutes, MaxLockTimeoutMinutes].
const (
	MinLockTimeoutMinutes     = 1
	MaxLockTimeoutMinutes     = 60
	DefaultLockTimeoutMinutes = 5
)

// MinPinLength is the minimum accepted PIN length for SetPin/ChangePin.
const MinPinLength = 4

// Persisted key-value storage keys used by the agent subsystems.
const (
	StorageKeyCachePrefix     = "cache_"
	StorageKeyTimestampPrefix = "timestamp_"
	StorageKeyQueue           = "queue_operations"
	StorageKeyPinHash         = "pin_hash"
	StorageKeyPinEnabled      = "pin_enabled"
	StorageKeyPinTimeout      = "pin_timeout_minutes"
	StorageKeyLastActivity    = "last_activity_time"
	StorageKeyLockState       = "lock_state"
	StorageKeyStaffLogin      = "staff_login"
	StorageKeyStaffPassword   = "staff_password_hash"
)
