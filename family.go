package evstore

import "fmt"

// Family is the top-level encoding of a dataset file. Families are mutually
// incompatible on the byte level even though they store the same logical
// row/column/value/timestamp model.
type Family uint8

const (
	RowLog         Family = 1
	BinaryColumnar Family = 2
)

func (f Family) String() string {
	switch f {
	case RowLog:
		return "row-log"
	case BinaryColumnar:
		return "binary-columnar"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

func (f Family) known() bool {
	return f == RowLog || f == BinaryColumnar
}
