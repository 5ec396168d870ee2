package core

// Reason classifies why an operation failed. Every reason is recoverable and
// user-facing; none is fatal to the process.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonInvalidAction        Reason = "InvalidAction"
	ReasonMissingCode          Reason = "MissingCode"
	ReasonDeviceOffline        Reason = "DeviceOffline"
	ReasonInvalidCode          Reason = "InvalidCode"
	ReasonExpiredCode          Reason = "ExpiredCode"
	ReasonTransportUnavailable Reason = "TransportUnavailable"
)

// Result is the outcome of a session operation. Failures carry a Reason and a
// human-readable Message; callers render it as {success, message} JSON.
type Result struct {
	OK      bool   `json:"success"`
	Message string `json:"message"`
	Reason  Reason `json:"-"`

	// DeviceOffline marks the advisory case where a refresh succeeded but the
	// socket is not expected to answer.
	DeviceOffline bool `json:"device_offline,omitempty"`
}

// Fail builds a failed Result.
func Fail(reason Reason, message string) Result {
	return Result{OK: false, Reason: reason, Message: message}
}

// Succeed builds a successful Result.
func Succeed(message string) Result {
	return Result{OK: true, Message: message}
}
