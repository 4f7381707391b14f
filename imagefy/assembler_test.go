package imagefy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler_Consume(t *testing.T) {
	tests := []struct {
		name          string
		size          uint64
		payloads      []string
		want          string
		wantRemaining uint64
	}{
		{
			name:     "truncates padding",
			size:     5,
			payloads: []string{"hello\x00\x00\x00"},
			want:     "hello",
		},
		{
			name:     "spans payloads",
			size:     7,
			payloads: []string{"abc", "def", "g\x00\x00"},
			want:     "abcdefg",
		},
		{
			name:     "ignores payloads after the end",
			size:     3,
			payloads: []string{"abc", "zzz"},
			want:     "abc",
		},
		{
			name:          "short input",
			size:          10,
			payloads:      []string{"abc"},
			want:          "abc",
			wantRemaining: 7,
		},
		{
			name:     "empty file",
			size:     0,
			payloads: []string{"\x00\x00"},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			a := NewAssembler(&buf, tt.size)
			for _, p := range tt.payloads {
				_, err := a.Consume([]byte(p))
				require.NoError(t, err)
			}

			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, tt.wantRemaining, a.Remaining())
			assert.Equal(t, uint64(len(tt.want)), a.Written())
			assert.Equal(t, tt.wantRemaining == 0, a.Done())
		})
	}
}
