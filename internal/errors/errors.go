// Package errors provides standardized error codes for the termlink client.
//
// Error codes follow the format {domain}.{error} where:
//   - domain: The subsystem that generated the error (transport, decode, protocol, ...)
//   - error: The specific error type within that domain
//
// These codes are stable and can be used by embedding UIs for programmatic
// error handling. Human-readable messages are provided alongside codes.
package errors

import (
	"errors"
	"fmt"
)

// Error codes by domain.
// These are stable identifiers that callers can rely on for error handling.
const (
	// Transport domain - connection and send/receive errors.
	// Transport errors trigger the reconnect policy; they are not fatal
	// to the session until the retry budget is exhausted.
	CodeTransportDialFailed  = "transport.dial_failed"  // WebSocket dial failed
	CodeTransportSendFailed  = "transport.send_failed"  // Failed to write a frame
	CodeTransportClosed      = "transport.closed"       // Operation on a closed transport
	CodeTransportStale       = "transport.stale"        // Liveness probe detected a stalled connection
	CodeTransportReadFailed  = "transport.read_failed"  // Failed to read a frame
	CodeTransportBadProtocol = "transport.bad_protocol" // Server did not accept the sub-protocol

	// Retry domain - reconnect policy outcomes.
	CodeRetryExhausted = "retry.exhausted" // Reconnect budget spent, session is dead

	// Decode domain - wire envelope errors. Decode errors are always
	// recoverable: the frame is dropped and the session continues.
	CodeDecodeMalformed   = "decode.malformed"    // Control frame is not a valid envelope
	CodeDecodeEmptyType   = "decode.empty_type"   // Envelope carries no type tag
	CodeDecodeBadBinary   = "decode.bad_binary"   // base64 binary payload could not be decoded
	CodeDecodeBadPayload  = "decode.bad_payload"  // Envelope data field is not valid for its tag
	CodeDecodeUnknownType = "decode.unknown_type" // Tag is outside the known set

	// Protocol domain - errors reported by the remote end.
	CodeProtocolServerError = "protocol.server_error" // ERROR / TERMINAL_ERROR from the server
	CodeProtocolUserRemoved = "protocol.user_removed" // Share access revoked by the session owner

	// Channel domain - multi-channel routing errors.
	CodeChannelUnknown = "channel.unknown" // No handler registered for the channel id

	// Transfer domain - binary file transfer errors.
	CodeTransferDecodeFailed = "transfer.decode_failed" // Transfer sub-decoder rejected a frame
	CodeTransferDisabled     = "transfer.disabled"      // Transfers disallowed for this session

	// Input domain - local terminal input errors.
	CodeInputRateLimited = "input.rate_limited" // Too many input events per second
	CodeInputSuppressed  = "input.suppressed"   // Input dropped during an active transfer

	// Config domain - configuration loading errors.
	CodeConfigNotFound    = "config.not_found"    // Explicit config path does not exist
	CodeConfigParseFailed = "config.parse_failed" // TOML parse failure

	// Journal domain - local session journal errors.
	CodeJournalOpenFailed  = "journal.open_failed"  // Database open failed
	CodeJournalWriteFailed = "journal.write_failed" // Failed to record an event

	// Discovery domain - mDNS endpoint discovery errors.
	CodeDiscoveryFailed   = "discovery.failed"    // Browse failed
	CodeDiscoveryNoResult = "discovery.no_result" // No endpoints found before the deadline

	// General domain - catch-all errors.
	CodeUnknown  = "error.unknown"  // Unknown error
	CodeInternal = "error.internal" // Internal client error
)

// CodedError wraps an error with a stable error code.
// This allows errors to carry both a code for programmatic handling
// and a message for human consumption.
type CodedError struct {
	Code    string // Stable error code (e.g., "transport.dial_failed")
	Message string // Human-readable error message
	Cause   error  // Underlying error (may be nil)
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// New creates a new CodedError with the given code and message.
func New(code, message string) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new CodedError wrapping an existing error.
func Wrap(code, message string, cause error) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// GetCode extracts the error code from an error.
// If the error is a CodedError, returns its code.
// Falls back to CodeUnknown for unrecognized errors.
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}

	return CodeUnknown
}

// GetMessage extracts a human-readable message from an error.
// If the error is a CodedError, returns its message.
// Otherwise, returns the error's Error() string.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}

	return err.Error()
}

// ToCodeAndMessage extracts both code and message from an error.
// This is the primary function for converting errors to observer events.
func ToCodeAndMessage(err error) (code, message string) {
	if err == nil {
		return "", ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code, coded.Message
	}

	return CodeUnknown, err.Error()
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}

// Common error constructors for frequently used error types.

// DialFailed creates a "transport.dial_failed" error.
func DialFailed(url string, cause error) *CodedError {
	return Wrap(CodeTransportDialFailed, fmt.Sprintf("failed to connect to %s", url), cause)
}

// SendFailed creates a "transport.send_failed" error.
func SendFailed(cause error) *CodedError {
	return Wrap(CodeTransportSendFailed, "failed to send frame", cause)
}

// TransportClosed creates a "transport.closed" error.
func TransportClosed() *CodedError {
	return New(CodeTransportClosed, "transport is closed")
}

// Stale creates a "transport.stale" error.
// This indicates the liveness probe saw no inbound traffic for longer
// than the staleness threshold and the connection will be recycled.
func Stale(sinceMs int64) *CodedError {
	return New(CodeTransportStale, fmt.Sprintf("no traffic received for %dms, forcing reconnect", sinceMs))
}

// RetryExhausted creates a "retry.exhausted" error.
// This is fatal to the session: the manager stops retrying and the user
// must reconnect manually.
func RetryExhausted(attempts int, cause error) *CodedError {
	msg := fmt.Sprintf("gave up after %d reconnect attempts", attempts)
	return Wrap(CodeRetryExhausted, msg, cause)
}

// MalformedEnvelope creates a "decode.malformed" error.
func MalformedEnvelope(cause error) *CodedError {
	return Wrap(CodeDecodeMalformed, "frame claims to be control data but is not a valid envelope", cause)
}

// EmptyType creates a "decode.empty_type" error.
func EmptyType() *CodedError {
	return New(CodeDecodeEmptyType, "envelope carries an empty type tag")
}

// BadBinaryPayload creates a "decode.bad_binary" error.
func BadBinaryPayload(channelID string, cause error) *CodedError {
	msg := fmt.Sprintf("binary payload for channel %s is not valid base64", channelID)
	return Wrap(CodeDecodeBadBinary, msg, cause)
}

// ServerError creates a "protocol.server_error" error.
// Server-reported errors are surfaced to the user but never fatal.
func ServerError(message string) *CodedError {
	return New(CodeProtocolServerError, message)
}

// UnknownChannel creates a "channel.unknown" error.
func UnknownChannel(channelID string) *CodedError {
	return New(CodeChannelUnknown, fmt.Sprintf("no handler registered for channel %s", channelID))
}

// InputRateLimited creates an "input.rate_limited" error.
func InputRateLimited() *CodedError {
	return New(CodeInputRateLimited, "terminal input rate limit exceeded, dropping input")
}

// Internal creates an "error.internal" error.
func Internal(message string, cause error) *CodedError {
	return Wrap(CodeInternal, message, cause)
}
