package portaudio

import (
	"sync"
	"time"

	"github.com/xih/designer-search-sub000/pkg/audio/pcm"
)

// OutputStream plays audio to the default output device.
type OutputStream struct {
	stream *stream
	format pcm.Format
	buffer []int16
	mu     sync.Mutex
	closed bool
}

// NewOutputStream creates a new output stream for playback.
// format: PCM format (e.g., pcm.L16Mono24K)
// bufferDuration: duration of each write buffer (e.g., 20ms)
func NewOutputStream(format pcm.Format, bufferDuration time.Duration) (*OutputStream, error) {
	framesPerBuffer := int(format.SamplesInDuration(bufferDuration))

	s, err := openOutput(format.Channels(), float64(format.SampleRate()), framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := s.start(); err != nil {
		s.close(true)
		return nil, err
	}

	return &OutputStream{
		stream: s,
		format: format,
		buffer: make([]int16, framesPerBuffer*format.Channels()),
	}, nil
}

// Write plays PCM samples, blocking until they are queued on the device.
// Samples longer than one device buffer are written in buffer-sized pieces;
// the final piece is padded with silence.
func (os *OutputStream) Write(samples []int16) (int, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return 0, ErrClosed
	}

	written := 0
	for written < len(samples) {
		n := copy(os.buffer, samples[written:])
		// Zero out the rest if samples is shorter than buffer
		for i := n; i < len(os.buffer); i++ {
			os.buffer[i] = 0
		}
		if err := os.stream.write(os.buffer); err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// Format returns the PCM format.
func (os *OutputStream) Format() pcm.Format {
	return os.format
}

// Close waits for queued audio to finish playing, then closes the stream.
func (os *OutputStream) Close() error {
	return os.shutdown(false)
}

// Abort discards queued audio and closes the stream immediately.
func (os *OutputStream) Abort() error {
	return os.shutdown(true)
}

func (os *OutputStream) shutdown(abort bool) error {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return nil
	}
	os.closed = true

	return os.stream.close(abort)
}
