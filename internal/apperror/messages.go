package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",
	CodeInterrupted:   "Interrupted by signal",

	CodeTelemetryInitFailed: "Failed to initialize telemetry",

	// JSON-RPC
	CodeTransportFailure:       "Request failed",
	CodeSerializationFailure:   "JSON serialization failed",
	CodeDeserializationFailure: "JSON deserialization failed",
	CodeNodeError:              "Node returned an error",
	CodeInvalidQuantity:        "Invalid hex quantity",
	CodeBlockNotFound:          "Block not found",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Replay and tracking
	CodePreconditionFailure:          "Precondition failed",
	CodeTransactionSubmissionFailure: "Transaction submission failed",
	CodeTransactionEncodingFailure:   "Transaction encoding failed",
	CodeInvalidBlockNumber:           "Invalid block number",
	CodeOutputWriteFailed:            "Failed to write output",
}
