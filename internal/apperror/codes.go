package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
	CodeInterrupted   Code = "INTERRUPTED"

	// Telemetry
	CodeTelemetryInitFailed Code = "TELEMETRY_INIT_FAILED"
)

// JSON-RPC error codes
const (
	CodeTransportFailure       Code = "TRANSPORT_FAILURE"
	CodeSerializationFailure   Code = "SERIALIZATION_FAILURE"
	CodeDeserializationFailure Code = "DESERIALIZATION_FAILURE"
	CodeNodeError              Code = "NODE_ERROR"
	CodeInvalidQuantity        Code = "INVALID_QUANTITY"
	CodeBlockNotFound          Code = "BLOCK_NOT_FOUND"

	// WebSocket transport
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
)

// Replay and tracking error codes
const (
	CodePreconditionFailure          Code = "PRECONDITION_FAILURE"
	CodeTransactionSubmissionFailure Code = "TRANSACTION_SUBMISSION_FAILURE"
	CodeTransactionEncodingFailure   Code = "TRANSACTION_ENCODING_FAILURE"
	CodeInvalidBlockNumber           Code = "INVALID_BLOCK_NUMBER"
	CodeOutputWriteFailed            Code = "OUTPUT_WRITE_FAILED"
)
