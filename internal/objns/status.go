package objns

import "fmt"

// Status is an NTSTATUS value reported by the object manager.
type Status uint32

// NTSTATUS values surfaced by the backends.
const (
	StatusSuccess                 Status = 0x00000000
	StatusBufferOverflow          Status = 0x80000005
	StatusInfoLengthMismatch      Status = 0xC0000004
	StatusInvalidHandle           Status = 0xC0000008
	StatusInvalidParameter        Status = 0xC000000D
	StatusAccessDenied            Status = 0xC0000022
	StatusBufferTooSmall          Status = 0xC0000023
	StatusObjectTypeMismatch      Status = 0xC0000024
	StatusObjectNameInvalid       Status = 0xC0000033
	StatusObjectNameNotFound      Status = 0xC0000034
	StatusObjectNameCollision     Status = 0xC0000035
	StatusObjectPathInvalid       Status = 0xC0000039
	StatusObjectPathNotFound      Status = 0xC000003A
	StatusObjectPathSyntaxBad     Status = 0xC000003B
	StatusNameTooLong             Status = 0xC0000106
	StatusReparsePointNotResolved Status = 0xC0000280
)

var statusNames = map[Status]string{
	StatusSuccess:                 "STATUS_SUCCESS",
	StatusBufferOverflow:          "STATUS_BUFFER_OVERFLOW",
	StatusInfoLengthMismatch:      "STATUS_INFO_LENGTH_MISMATCH",
	StatusInvalidHandle:           "STATUS_INVALID_HANDLE",
	StatusInvalidParameter:        "STATUS_INVALID_PARAMETER",
	StatusAccessDenied:            "STATUS_ACCESS_DENIED",
	StatusBufferTooSmall:          "STATUS_BUFFER_TOO_SMALL",
	StatusObjectTypeMismatch:      "STATUS_OBJECT_TYPE_MISMATCH",
	StatusObjectNameInvalid:       "STATUS_OBJECT_NAME_INVALID",
	StatusObjectNameNotFound:      "STATUS_OBJECT_NAME_NOT_FOUND",
	StatusObjectNameCollision:     "STATUS_OBJECT_NAME_COLLISION",
	StatusObjectPathInvalid:       "STATUS_OBJECT_PATH_INVALID",
	StatusObjectPathNotFound:      "STATUS_OBJECT_PATH_NOT_FOUND",
	StatusObjectPathSyntaxBad:     "STATUS_OBJECT_PATH_SYNTAX_BAD",
	StatusNameTooLong:             "STATUS_NAME_TOO_LONG",
	StatusReparsePointNotResolved: "STATUS_REPARSE_POINT_NOT_RESOLVED",
}

// IsError reports whether s has error severity (NT_ERROR).
func (s Status) IsError() bool {
	return uint32(s)>>30 == 3
}

// NeedsMoreData reports whether s signals that a query buffer was too small.
func (s Status) NeedsMoreData() bool {
	switch s {
	case StatusBufferOverflow, StatusInfoLengthMismatch, StatusBufferTooSmall:
		return true
	}
	return false
}

// Hex renders s as eight upper-case hex digits.
func (s Status) Hex() string {
	return fmt.Sprintf("%08X", uint32(s))
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return "0x" + s.Hex() + " " + name
	}
	return "0x" + s.Hex()
}
