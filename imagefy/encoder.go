package imagefy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/flaneur2020/imagefy/imagefy/logger"
	"github.com/flaneur2020/imagefy/imagefy/pngcodec"
	"github.com/flaneur2020/imagefy/imagefy/storage"
	"github.com/opencontainers/go-digest"
)

// ProgressCallback is called after each image is processed
// current: images processed so far
// total: images in the sequence
type ProgressCallback func(current int64, total int64)

// ImageName returns the file name of the image at index.
func ImageName(index int) string {
	return fmt.Sprintf("%05d%s", index, storage.ImageExt)
}

// EncodeJob describes one file to split into images
type EncodeJob struct {
	Width     uint32
	Height    uint32
	InputPath string
	OutputDir string
}

// EncodeStats contains statistics about an encode operation
type EncodeStats struct {
	FileName string
	FileSize int64
	Capacity int64
	Images   int
	Digest   digest.Digest
}

type Encoder interface {
	// Encode writes the input file as 00000.png, 00001.png, ... into the
	// output directory. Images already written are left in place on error.
	Encode(ctx context.Context, job *EncodeJob, progress ProgressCallback) (*EncodeStats, error)
}

type encoder struct {
	storage storage.Storage
	codec   pngcodec.Codec
}

func NewEncoder(s storage.Storage, codec pngcodec.Codec) Encoder {
	return &encoder{
		storage: s,
		codec:   codec,
	}
}

func (e *encoder) Encode(ctx context.Context, job *EncodeJob, progress ProgressCallback) (*EncodeStats, error) {
	if err := ValidateDimensions(job.Width, job.Height); err != nil {
		return nil, err
	}

	info, err := e.storage.Stat(job.InputPath)
	if err != nil {
		return nil, statError("stat", job.InputPath, err)
	}
	if info.IsDir() {
		return nil, NewPathTypeError(job.InputPath, false)
	}

	dirInfo, err := e.storage.Stat(job.OutputDir)
	if err != nil {
		return nil, statError("stat", job.OutputDir, err)
	}
	if !dirInfo.IsDir() {
		return nil, NewPathTypeError(job.OutputDir, true)
	}

	header := &Header{
		Name: filepath.Base(job.InputPath),
		Size: uint64(info.Size()),
	}
	capacity := Capacity(job.Width, job.Height)

	file, err := e.storage.Open(job.InputPath)
	if err != nil {
		return nil, statError("open", job.InputPath, err)
	}
	defer file.Close()

	digester := digest.Canonical.Digester()
	chunks, err := NewChunkIterator(io.TeeReader(file, digester.Hash()), header, capacity)
	if err != nil {
		return nil, err
	}

	count := chunks.Count()
	logger.Info("%d images to write (%dx%d, %d bytes each)", count, job.Width, job.Height, capacity)

	for {
		if err := ctx.Err(); err != nil {
			return nil, NewCancelledError("encode", job.InputPath, err)
		}

		index, chunk, err := chunks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewIOError("read", job.InputPath, err)
		}

		imagePath := filepath.Join(job.OutputDir, ImageName(index))
		compress := index == count-1
		if err := e.writeImage(imagePath, int(job.Width), int(job.Height), chunk, compress); err != nil {
			return nil, err
		}
		logger.Debug("wrote %s (compress=%v)", imagePath, compress)

		if progress != nil {
			progress(int64(index+1), int64(count))
		}
	}

	return &EncodeStats{
		FileName: header.Name,
		FileSize: info.Size(),
		Capacity: capacity,
		Images:   count,
		Digest:   digester.Digest(),
	}, nil
}

func (e *encoder) writeImage(path string, width, height int, pixels []byte, compress bool) (err error) {
	out, err := e.storage.CreateExclusive(path)
	if err != nil {
		if os.IsExist(err) {
			return imagefyerrors.ErrImageAlreadyExists.WithDetail("path", path)
		}
		return NewIOError("create", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = NewIOError("close", path, cerr)
		}
	}()

	w := bufio.NewWriter(out)
	if err := e.codec.Encode(w, width, height, pixels, compress); err != nil {
		return NewImageCodecError(path, err)
	}
	if err := w.Flush(); err != nil {
		return NewIOError("write", path, err)
	}
	return nil
}
