package imagefy

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/flaneur2020/imagefy/imagefy/pngcodec"
)

const (
	// lengthFieldSize is the width of name_length and file_size.
	lengthFieldSize = 8

	// HeaderOverhead is the header size for an empty file name.
	HeaderOverhead = 2 * lengthFieldSize

	// MaxPixels bounds width*height so capacities always fit an int.
	MaxPixels = 1 << 30
)

// Header is the container header stored at the start of image 0:
//
//	[name_length:u64 LE][file_name][file_size:u64 LE]
type Header struct {
	Name string
	Size uint64
}

// Len returns the encoded header size in bytes.
func (h *Header) Len() int {
	return HeaderOverhead + len(h.Name)
}

// AppendBinary appends the encoded header to b.
func (h *Header) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint64(b, uint64(len(h.Name)))
	b = append(b, h.Name...)
	b = binary.LittleEndian.AppendUint64(b, h.Size)
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h *Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, h.Len())), nil
}

// ParseHeader decodes the header at the start of payload and returns it
// together with the number of bytes it occupies.
func ParseHeader(payload []byte) (*Header, int, error) {
	if len(payload) < HeaderOverhead {
		return nil, 0, imagefyerrors.ErrInvalidHeader.
			WithMessage("payload shorter than the container header").
			WithDetail("payloadSize", len(payload))
	}

	nameLength := binary.LittleEndian.Uint64(payload[:lengthFieldSize])
	if nameLength > uint64(len(payload)-HeaderOverhead) {
		return nil, 0, imagefyerrors.ErrInvalidHeader.
			WithMessage("file name runs past the first image").
			WithDetail("nameLength", nameLength).
			WithDetail("payloadSize", len(payload))
	}

	end := lengthFieldSize + int(nameLength)
	name := payload[lengthFieldSize:end]
	if !utf8.Valid(name) {
		return nil, 0, imagefyerrors.ErrInvalidHeader.WithMessage("file name is not valid UTF-8")
	}

	size := binary.LittleEndian.Uint64(payload[end : end+lengthFieldSize])
	return &Header{Name: string(name), Size: size}, end + lengthFieldSize, nil
}

// Capacity is the payload held by one width x height image.
func Capacity(width, height uint32) int64 {
	return int64(width) * int64(height) * pngcodec.BytesPerPixel
}

// ValidateDimensions rejects sizes that cannot hold any payload or would
// overflow the chunk buffer.
func ValidateDimensions(width, height uint32) error {
	if width == 0 || height == 0 || uint64(width)*uint64(height) > MaxPixels {
		return imagefyerrors.ErrInvalidDimensions.
			WithDetail("width", width).
			WithDetail("height", height).
			WithCause(fmt.Errorf("width*height must be between 1 and %d", MaxPixels))
	}
	return nil
}

// CheckHeaderFits fails unless image 0 has room for the header and at least
// one content byte.
func CheckHeaderFits(header *Header, capacity int64) error {
	if capacity <= int64(header.Len()) {
		return imagefyerrors.ErrHeaderTooLarge.
			WithDetail("headerSize", header.Len()).
			WithDetail("capacity", capacity)
	}
	return nil
}

// ImageCount returns how many images a file of fileSize bytes needs once a
// headerLen-byte header is prepended. It is at least 1.
func ImageCount(capacity int64, headerLen int, fileSize int64) int64 {
	total := fileSize + int64(headerLen)
	return (total + capacity - 1) / capacity
}
