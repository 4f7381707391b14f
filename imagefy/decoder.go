package imagefy

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/flaneur2020/imagefy/imagefy/logger"
	"github.com/flaneur2020/imagefy/imagefy/pngcodec"
	"github.com/flaneur2020/imagefy/imagefy/storage"
	"github.com/opencontainers/go-digest"
)

// DecodeJob describes an image sequence to join back into a file
type DecodeJob struct {
	// ImagePaths must be in the order the encoder produced them.
	ImagePaths []string
	// OutputPath is either a directory, in which case the file name stored
	// in the header is used, or the target file itself.
	OutputPath string
}

// DecodeStats contains statistics about a decode operation
type DecodeStats struct {
	FileName   string
	FileSize   uint64
	Written    uint64
	Missing    uint64
	Images     int
	OutputPath string
	Digest     digest.Digest
}

type Decoder interface {
	// Decode rebuilds the original file. Supplying fewer images than the
	// file needs yields a short file, reported through DecodeStats.Missing.
	Decode(ctx context.Context, job *DecodeJob, progress ProgressCallback) (*DecodeStats, error)
}

type decoder struct {
	storage storage.Storage
	codec   pngcodec.Codec
}

func NewDecoder(s storage.Storage, codec pngcodec.Codec) Decoder {
	return &decoder{
		storage: s,
		codec:   codec,
	}
}

type decodedImage struct {
	width  int
	height int
	pixels []byte
}

func (d *decoder) Decode(ctx context.Context, job *DecodeJob, progress ProgressCallback) (stats *DecodeStats, err error) {
	if len(job.ImagePaths) == 0 {
		return nil, imagefyerrors.ErrNoInput
	}
	total := int64(len(job.ImagePaths))

	first, err := d.readImage(job.ImagePaths[0])
	if err != nil {
		return nil, err
	}

	header, headerLen, err := ParseHeader(first.pixels)
	if err != nil {
		if ie, ok := err.(*imagefyerrors.ImagefyError); ok {
			return nil, ie.WithDetail("path", job.ImagePaths[0])
		}
		return nil, err
	}
	logger.Info("file name: %s", header.Name)
	logger.Info("file size: %d bytes", header.Size)

	target, err := d.resolveTarget(job.OutputPath, header.Name)
	if err != nil {
		return nil, err
	}

	out, err := d.storage.CreateExclusive(target)
	if err != nil {
		if os.IsExist(err) {
			return nil, imagefyerrors.ErrOutputAlreadyExists.WithDetail("path", target)
		}
		return nil, NewIOError("create", target, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			stats, err = nil, NewIOError("close", target, cerr)
		}
	}()

	digester := digest.Canonical.Digester()
	bw := bufio.NewWriter(out)
	assembler := NewAssembler(io.MultiWriter(bw, digester.Hash()), header.Size)

	if _, err := assembler.Consume(first.pixels[headerLen:]); err != nil {
		return nil, NewIOError("write", target, err)
	}
	if progress != nil {
		progress(1, total)
	}

	for i, path := range job.ImagePaths[1:] {
		if err := ctx.Err(); err != nil {
			return nil, NewCancelledError("decode", path, err)
		}

		img, err := d.readImage(path)
		if err != nil {
			return nil, err
		}
		if img.width != first.width || img.height != first.height {
			logger.Warn("%s is %dx%d, first image is %dx%d", path, img.width, img.height, first.width, first.height)
		}
		if assembler.Done() {
			logger.Debug("%s carries no content past the declared size", path)
		}

		if _, err := assembler.Consume(img.pixels); err != nil {
			return nil, NewIOError("write", target, err)
		}
		if progress != nil {
			progress(int64(i+2), total)
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, NewIOError("write", target, err)
	}

	if missing := assembler.Remaining(); missing > 0 {
		logger.Info("images ended %d bytes before the declared size of %d bytes", missing, header.Size)
	}

	return &DecodeStats{
		FileName:   header.Name,
		FileSize:   header.Size,
		Written:    assembler.Written(),
		Missing:    assembler.Remaining(),
		Images:     len(job.ImagePaths),
		OutputPath: target,
		Digest:     digester.Digest(),
	}, nil
}

// resolveTarget picks the output file: outputPath itself, or the stored
// file name inside outputPath when it is a directory.
func (d *decoder) resolveTarget(outputPath string, name string) (string, error) {
	target := outputPath
	if storage.IsDir(d.storage, outputPath) {
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return "", imagefyerrors.ErrInvalidHeader.
				WithMessage("stored file name cannot be used as an output name").
				WithDetail("name", name)
		}
		target = filepath.Join(outputPath, name)
	}

	exists, err := storage.Exists(d.storage, target)
	if err != nil {
		return "", NewIOError("stat", target, err)
	}
	if exists {
		return "", imagefyerrors.ErrOutputAlreadyExists.WithDetail("path", target)
	}
	return target, nil
}

func (d *decoder) readImage(path string) (*decodedImage, error) {
	f, err := d.storage.Open(path)
	if err != nil {
		return nil, statError("open", path, err)
	}
	defer f.Close()

	width, height, pixels, err := d.codec.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, NewImageCodecError(path, err)
	}
	logger.Debug("read %s (%dx%d)", path, width, height)

	return &decodedImage{width: width, height: height, pixels: pixels}, nil
}
