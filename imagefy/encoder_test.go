package imagefy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/flaneur2020/imagefy/imagefy/pngcodec"
	"github.com/flaneur2020/imagefy/imagefy/storage"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStorage returns in-memory storage holding the given files and an
// empty /out directory.
func newTestStorage(t *testing.T, files map[string][]byte) *storage.FsStorage {
	t.Helper()

	s := storage.NewMemStorage()
	require.NoError(t, s.Fs().MkdirAll("/out", 0755))
	for path, content := range files {
		require.NoError(t, s.Fs().MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(s.Fs(), path, content, 0644))
	}
	return s
}

// decodePayload returns the raw pixel bytes of an image in s.
func decodePayload(t *testing.T, s *storage.FsStorage, path string) (int, int, []byte) {
	t.Helper()

	data, err := afero.ReadFile(s.Fs(), path)
	require.NoError(t, err)
	w, h, pixels, err := pngcodec.New().Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return w, h, pixels
}

func TestEncoder_ReportScenario(t *testing.T) {
	s := newTestStorage(t, map[string][]byte{"/in/report.txt": []byte("hello")})
	enc := NewEncoder(s, pngcodec.New())

	_, err := enc.Encode(context.Background(), &EncodeJob{Width: 2, Height: 2, InputPath: "/in/report.txt", OutputDir: "/out"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, imagefyerrors.ErrHeaderTooLarge), "got %v", err)

	images, err := s.ListImages("/out")
	require.NoError(t, err)
	assert.Empty(t, images, "nothing is written when the header does not fit")

	stats, err := enc.Encode(context.Background(), &EncodeJob{Width: 10, Height: 10, InputPath: "/in/report.txt", OutputDir: "/out"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Images)
	assert.Equal(t, "report.txt", stats.FileName)
	assert.Equal(t, int64(5), stats.FileSize)
	assert.Equal(t, int64(300), stats.Capacity)
	assert.Equal(t, digest.FromBytes([]byte("hello")), stats.Digest)

	images, err = s.ListImages("/out")
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "/out/00000.png", filepath.ToSlash(images[0].Path))

	w, h, pixels := decodePayload(t, s, images[0].Path)
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
	require.Len(t, pixels, 300)

	want := []byte{10, 0, 0, 0, 0, 0, 0, 0}
	want = append(want, "report.txt"...)
	want = append(want, 5, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, "hello"...)
	assert.Equal(t, want, pixels[:len(want)])
	assert.Equal(t, make([]byte, 300-len(want)), pixels[len(want):])
}

func TestEncoder_MultipleImages(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789"), 100)
	s := newTestStorage(t, map[string][]byte{"/in/data.bin": content})

	var calls []int64
	progress := func(current, total int64) {
		calls = append(calls, current)
		assert.Equal(t, int64(4), total)
	}

	// header 24 bytes + 1000 content bytes over 300-byte images
	stats, err := NewEncoder(s, pngcodec.New()).Encode(context.Background(),
		&EncodeJob{Width: 10, Height: 10, InputPath: "/in/data.bin", OutputDir: "/out"}, progress)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Images)
	assert.Equal(t, []int64{1, 2, 3, 4}, calls)

	images, err := s.ListImages("/out")
	require.NoError(t, err)
	require.Len(t, images, 4)
	for i, img := range images {
		assert.Equal(t, ImageName(i), filepath.Base(img.Path))
	}

	_, _, last := decodePayload(t, s, images[3].Path)
	used := 1024 - 3*300
	assert.Equal(t, content[1000-used:], last[:used])
	assert.Equal(t, make([]byte, 300-used), last[used:])
}

func TestEncoder_EmptyFile(t *testing.T) {
	s := newTestStorage(t, map[string][]byte{"/in/empty": {}})

	stats, err := NewEncoder(s, pngcodec.New()).Encode(context.Background(),
		&EncodeJob{Width: 4, Height: 4, InputPath: "/in/empty", OutputDir: "/out"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Images)

	_, _, pixels := decodePayload(t, s, "/out/00000.png")
	header, used, err := ParseHeader(pixels)
	require.NoError(t, err)
	assert.Equal(t, &Header{Name: "empty", Size: 0}, header)
	assert.Equal(t, make([]byte, 48-used), pixels[used:])
}

func TestEncoder_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, s *storage.FsStorage)
		job      *EncodeJob
		wantCode string
	}{
		{
			name:     "missing input",
			job:      &EncodeJob{Width: 10, Height: 10, InputPath: "/in/missing", OutputDir: "/out"},
			wantCode: "PATH_NOT_FOUND",
		},
		{
			name:     "input is a directory",
			job:      &EncodeJob{Width: 10, Height: 10, InputPath: "/in", OutputDir: "/out"},
			wantCode: "PATH_TYPE_MISMATCH",
		},
		{
			name:     "missing output dir",
			job:      &EncodeJob{Width: 10, Height: 10, InputPath: "/in/a.txt", OutputDir: "/nowhere"},
			wantCode: "PATH_NOT_FOUND",
		},
		{
			name:     "output is a file",
			job:      &EncodeJob{Width: 10, Height: 10, InputPath: "/in/a.txt", OutputDir: "/in/a.txt"},
			wantCode: "PATH_TYPE_MISMATCH",
		},
		{
			name:     "zero width",
			job:      &EncodeJob{Width: 0, Height: 10, InputPath: "/in/a.txt", OutputDir: "/out"},
			wantCode: "INVALID_DIMENSIONS",
		},
		{
			name: "image collision",
			setup: func(t *testing.T, s *storage.FsStorage) {
				require.NoError(t, afero.WriteFile(s.Fs(), "/out/00000.png", []byte("old"), 0644))
			},
			job:      &EncodeJob{Width: 10, Height: 10, InputPath: "/in/a.txt", OutputDir: "/out"},
			wantCode: "IMAGE_ALREADY_EXISTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStorage(t, map[string][]byte{"/in/a.txt": []byte("abc")})
			if tt.setup != nil {
				tt.setup(t, s)
			}

			_, err := NewEncoder(s, pngcodec.New()).Encode(context.Background(), tt.job, nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, imagefyerrors.GetErrorCode(err), "got %v", err)
		})
	}
}

func TestEncoder_LeavesWrittenImagesOnFailure(t *testing.T) {
	s := newTestStorage(t, map[string][]byte{"/in/a.bin": make([]byte, 1000)})
	require.NoError(t, afero.WriteFile(s.Fs(), "/out/00002.png", []byte("old"), 0644))

	_, err := NewEncoder(s, pngcodec.New()).Encode(context.Background(),
		&EncodeJob{Width: 10, Height: 10, InputPath: "/in/a.bin", OutputDir: "/out"}, nil)
	require.Error(t, err)
	assert.Equal(t, "IMAGE_ALREADY_EXISTS", imagefyerrors.GetErrorCode(err))

	for _, name := range []string{"00000.png", "00001.png"} {
		exists, err := storage.Exists(s, filepath.Join("/out", name))
		require.NoError(t, err)
		assert.True(t, exists, name)
	}
}

func TestEncoder_CancelledContext(t *testing.T) {
	s := newTestStorage(t, map[string][]byte{"/in/a.bin": make([]byte, 1000)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEncoder(s, pngcodec.New()).Encode(ctx,
		&EncodeJob{Width: 10, Height: 10, InputPath: "/in/a.bin", OutputDir: "/out"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, imagefyerrors.ErrCancelled)
	assert.Equal(t, "CANCELLED", imagefyerrors.GetErrorCode(err))
}

// compressionRecorder records the compress flag of every encoded image.
type compressionRecorder struct {
	pngcodec.Codec
	flags []bool
}

func (c *compressionRecorder) Encode(w io.Writer, width, height int, pixels []byte, compress bool) error {
	c.flags = append(c.flags, compress)
	return c.Codec.Encode(w, width, height, pixels, compress)
}

func TestEncoder_CompressesLastImage(t *testing.T) {
	tests := []struct {
		name string
		size int
		want []bool
	}{
		{"single image", 10, []bool{true}},
		{"three images", 700, []bool{false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStorage(t, map[string][]byte{"/in/x": make([]byte, tt.size)})
			rec := &compressionRecorder{Codec: pngcodec.New()}

			_, err := NewEncoder(s, rec).Encode(context.Background(),
				&EncodeJob{Width: 10, Height: 10, InputPath: "/in/x", OutputDir: "/out"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.flags)
		})
	}
}
