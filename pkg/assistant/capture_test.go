package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svayampatel/Voice-ai/pkg/audioio"
)

func TestCaptureBuffersChunks(t *testing.T) {
	source := audioio.NewMockSource(audioio.DefaultConfig(), nil, audioio.WithSineWave(440, 0.5))
	c := NewCaptureController(source, nil)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Capturing())

	require.Eventually(t, func() bool { return source.ChunksRead() >= 3 },
		2*time.Second, 10*time.Millisecond)

	payload, err := c.Stop()
	require.NoError(t, err)
	assert.False(t, c.Capturing())

	// Each 100ms chunk at 16kHz mono PCM16 is 3200 bytes.
	chunkBytes := audioio.DefaultConfig().BufferSize() * 2
	assert.GreaterOrEqual(t, len(payload), 3*chunkBytes)
}

func TestCaptureStopWithoutStart(t *testing.T) {
	c := NewCaptureController(audioio.NewMockSource(audioio.DefaultConfig(), nil), nil)

	payload, err := c.Stop()
	assert.ErrorIs(t, err, ErrNotCapturing)
	assert.Nil(t, payload)
}

func TestCaptureStartFailurePropagates(t *testing.T) {
	source := audioio.NewMockSource(audioio.DefaultConfig(), nil,
		audioio.WithStartError(audioio.ErrNoDevice))
	c := NewCaptureController(source, nil)

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, audioio.ErrNoDevice)
	assert.False(t, c.Capturing())
}

func TestCaptureDoubleStartRejected(t *testing.T) {
	source := audioio.NewMockSource(audioio.DefaultConfig(), nil)
	c := NewCaptureController(source, nil)

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	assert.ErrorIs(t, c.Start(context.Background()), audioio.ErrBusy)
}

func TestClassifyCaptureError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"permission", audioio.ErrPermissionDenied, StatusCaptureDenied},
		{"no device", audioio.ErrNoDevice, StatusCaptureNoDevice},
		{"wrapped permission", errors.Join(errors.New("ctx"), audioio.ErrPermissionDenied), StatusCaptureDenied},
		{"generic", errors.New("hardware on fire"), StatusCaptureFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCaptureError(tt.err))
		})
	}
}
