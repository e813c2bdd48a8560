package evstore

import "fmt"

var (
	// ErrCorruptHeader means the file's format tag cannot be parsed
	// (truncated, zero-length, bad magic, bad checksum or unknown family).
	// Such a file is unusable under any declared type.
	ErrCorruptHeader = fmt.Errorf("corrupt dataset header")

	// ErrUnsupportedVersion means the tag names a format version newer than
	// this package understands. A known-family/unknown-version combination is
	// still an unusable header, so this wraps ErrCorruptHeader.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported format version", ErrCorruptHeader)

	// ErrAlreadyExists means a create-only path already exists. Mutable
	// creation never opens an existing file.
	ErrAlreadyExists = fmt.Errorf("dataset file already exists")

	// ErrUnknownType means the declared type name is not in the registry.
	ErrUnknownType = fmt.Errorf("unknown dataset type")

	errWriterClosed = fmt.Errorf("dataset writer is closed")
)

// TypeMismatchError means the file's tag parsed fine, but its family is not
// allowed for the declared type. Recoverable by reopening under the correct
// declared type. The message wording is load-bearing: callers and tests match
// on it.
type TypeMismatchError struct {
	Declared string // declared type name as requested by the caller
	Expected Family // family required by the declared type
	Actual   Family // family found in the file's tag
}

func (e *TypeMismatchError) Error() string {
	if e.Declared != "" && e.Declared != e.Expected.String() {
		return fmt.Sprintf("the loaded dataset is not of type %s (%v), it is %v", e.Declared, e.Expected, e.Actual)
	}
	return fmt.Sprintf("the loaded dataset is not of type %v, it is %v", e.Expected, e.Actual)
}

// DecodeError means a reader was pointed at bytes it cannot decode: either
// the tag family does not match the reader's own (a tag/content desync caught
// by the reader's second check), or the data section is corrupted mid-file.
type DecodeError struct {
	Path   string
	Family Family // the family this reader decodes
	Msg    string
	Err    error
}

func decodeErrf(path string, family Family, err error, format string, args ...any) error {
	return &DecodeError{path, family, fmt.Sprintf(format, args...), err}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: decoding %v data: %s: %v", e.Path, e.Family, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: decoding %v data: %s", e.Path, e.Family, e.Msg)
}
