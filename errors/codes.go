package errors

// ErrorCode identifies an application error class independent of its HTTP
// mapping.
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_PERMISSION_DENIED ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1004

	// Ingestion
	ErrorCode_MISSING_DOCTOR_ID     ErrorCode = 2000
	ErrorCode_MISSING_AUDIO_FILE    ErrorCode = 2001
	ErrorCode_UPLOAD_FAILED         ErrorCode = 2002
	ErrorCode_PREPROCESSING_FAILED  ErrorCode = 2003
	ErrorCode_INVALID_ROBOT_DEVICE  ErrorCode = 2004
	ErrorCode_ROBOT_SESSION_UNKNOWN ErrorCode = 2005

	// Artifacts
	ErrorCode_REPORT_NOT_FOUND ErrorCode = 3000
)

// String returns the symbolic name for logging.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCode_HTTP_OK:
		return "OK"
	case ErrorCode_INTERNAL:
		return "INTERNAL"
	case ErrorCode_INVALID_ARGUMENT:
		return "INVALID_ARGUMENT"
	case ErrorCode_NOT_FOUND:
		return "NOT_FOUND"
	case ErrorCode_PERMISSION_DENIED:
		return "PERMISSION_DENIED"
	case ErrorCode_INVALID_PAYLOAD:
		return "INVALID_PAYLOAD"
	case ErrorCode_MISSING_DOCTOR_ID:
		return "MISSING_DOCTOR_ID"
	case ErrorCode_MISSING_AUDIO_FILE:
		return "MISSING_AUDIO_FILE"
	case ErrorCode_UPLOAD_FAILED:
		return "UPLOAD_FAILED"
	case ErrorCode_PREPROCESSING_FAILED:
		return "PREPROCESSING_FAILED"
	case ErrorCode_INVALID_ROBOT_DEVICE:
		return "INVALID_ROBOT_DEVICE"
	case ErrorCode_ROBOT_SESSION_UNKNOWN:
		return "ROBOT_SESSION_UNKNOWN"
	case ErrorCode_REPORT_NOT_FOUND:
		return "REPORT_NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}
