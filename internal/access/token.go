package access

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const tokenVersion = 1

var (
	errNoTokens = errors.New("provider does not issue tokens")

	// ErrBadToken is returned for tokens that cannot be decoded.
	ErrBadToken = errors.New("malformed access token")
)

// fileID is what a token records about a folder.
type fileID struct {
	Dev  uint64
	Ino  uint64
	Path string
}

// marshal encodes id as: version byte, dev, ino (uvarints), path length
// (uvarint), path bytes.
func (id fileID) marshal() []byte {
	buf := make([]byte, 0, 1+3*binary.MaxVarintLen64+len(id.Path))
	buf = append(buf, tokenVersion)
	buf = binary.AppendUvarint(buf, id.Dev)
	buf = binary.AppendUvarint(buf, id.Ino)
	buf = binary.AppendUvarint(buf, uint64(len(id.Path)))
	return append(buf, id.Path...)
}

func unmarshalFileID(b []byte) (fileID, error) {
	if len(b) == 0 || b[0] != tokenVersion {
		return fileID{}, fmt.Errorf("%w: unknown version", ErrBadToken)
	}
	b = b[1:]

	var fields [3]uint64
	for i := range fields {
		v, n := binary.Uvarint(b)
		if n <= 0 {
			return fileID{}, fmt.Errorf("%w: truncated header", ErrBadToken)
		}
		fields[i] = v
		b = b[n:]
	}
	if fields[2] != uint64(len(b)) {
		return fileID{}, fmt.Errorf("%w: path length mismatch", ErrBadToken)
	}
	return fileID{Dev: fields[0], Ino: fields[1], Path: string(b)}, nil
}
