package numbering_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyhub/internal/core/id"
	"policyhub/internal/domain/numbering"
)

func sampleGenerator() *numbering.Generator {
	return &numbering.Generator{
		ID:          id.New(),
		TenantID:    "tenant-a",
		ProductCode: "POL",
		Mask:        "POL-########",
		ResetPolicy: numbering.ResetYearly,
		MaxValue:    99999999,
		XORMask:     "k3y",
		Version:     3,
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}
}

func TestRevisionLog_SnapshotCodec(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		want      string
	}{
		{"always compress", 0, CompressionZstd},
		{"below threshold", DefaultCompressThreshold, CompressionNone},
		{"disabled", -1, CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewRevisionLog(nil, tt.threshold)
			require.NoError(t, err)

			g := sampleGenerator()
			data, compression, err := log.encode(g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, compression)

			back, err := log.decode(data, compression)
			require.NoError(t, err)
			assert.Equal(t, *g, back)
		})
	}
}

func TestRevisionLog_DecodeUnknownCompression(t *testing.T) {
	log, err := NewRevisionLog(nil, 0)
	require.NoError(t, err)

	_, err = log.decode([]byte("{}"), "lz4")
	assert.Error(t, err)
}
