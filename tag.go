package evstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

const (
	tagMagic          = 0x5445535441445645 // "EVDATSET" as little-endian uint64
	tagVersion1 uint8 = 1
)

const tagSize = 24

const (
	tagFlagMutable uint16 = 1 << 0
)

// fileTag is the on-disk layout of the format tag, always at offset 0,
// little-endian. Checksum covers every preceding byte.
type fileTag struct {
	Magic    uint64
	Version  uint8
	Family   uint8
	Flags    uint16
	_        uint32
	Checksum uint64
}

// Tag identifies a persisted file's encoding family, mutability class and
// format version. Every dataset file has exactly one, written with the first
// commit and never altered in place.
type Tag struct {
	Family  Family
	Mutable bool
	Version int
}

func (t Tag) String() string {
	mut := "frozen"
	if t.Mutable {
		mut = "mutable"
	}
	return fmt.Sprintf("%v/%s/v%d", t.Family, mut, t.Version)
}

func appendTag(buf []byte, family Family, mutable bool) []byte {
	h := fileTag{
		Magic:   tagMagic,
		Version: tagVersion1,
		Family:  uint8(family),
	}
	if mutable {
		h.Flags |= tagFlagMutable
	}

	start := len(buf)
	buf = append(buf, make([]byte, tagSize)...)
	n, err := binary.Encode(buf[start:], binary.LittleEndian, h)
	if err != nil {
		panic(err)
	}
	if n != tagSize {
		panic("internal size mismatch")
	}

	sum := xxhash.Sum64(buf[start : start+tagSize-8])
	binary.LittleEndian.PutUint64(buf[start+tagSize-8:], sum)
	return buf
}

// writeTag stamps an empty file with its format tag. The tag is write-once:
// a file that already has bytes at offset 0 is refused.
func writeTag(f *os.File, family Family, mutable bool) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() != 0 {
		return fmt.Errorf("%s: refusing to overwrite existing format tag", f.Name())
	}

	_, err = f.WriteAt(appendTag(nil, family, mutable), 0)
	return err
}

func decodeTag(buf []byte) (Tag, error) {
	var h fileTag
	n, err := binary.Decode(buf, binary.LittleEndian, &h)
	if err != nil {
		panic(err)
	}
	if n != tagSize {
		panic("internal size mismatch")
	}

	if h.Magic != tagMagic {
		return Tag{}, fmt.Errorf("%w: bad magic %016x", ErrCorruptHeader, h.Magic)
	}
	if sum := xxhash.Sum64(buf[:tagSize-8]); sum != h.Checksum {
		return Tag{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptHeader)
	}
	if !Family(h.Family).known() {
		return Tag{}, fmt.Errorf("%w: unknown family %d", ErrCorruptHeader, h.Family)
	}
	if h.Version > tagVersion1 {
		return Tag{}, fmt.Errorf("%w %d", ErrUnsupportedVersion, h.Version)
	}

	return Tag{
		Family:  Family(h.Family),
		Mutable: h.Flags&tagFlagMutable != 0,
		Version: int(h.Version),
	}, nil
}

func readTag(f io.Reader) (Tag, error) {
	var buf [tagSize]byte
	n, err := io.ReadFull(f, buf[:])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return Tag{}, fmt.Errorf("%w: file too short (%d bytes)", ErrCorruptHeader, n)
	} else if err != nil {
		return Tag{}, err
	}
	return decodeTag(buf[:])
}

// ReadTag reads and verifies the format tag of the file at path.
func ReadTag(path string) (Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tag{}, err
	}
	defer f.Close()
	return readTag(f)
}
