// Package portaudio provides Go bindings for the PortAudio library.
//
// This package uses CGO to interface with the PortAudio C library and
// exposes the blocking output path used for speech playback: device
// enumeration and 16-bit PCM output streams.
//
// For go build: requires portaudio installed via pkg-config (brew install portaudio,
// apt install portaudio19-dev)
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, NULL, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_abort_stream(void *stream) {
    return Pa_AbortStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	initMu      sync.Mutex
	initialized bool
)

// ErrClosed is returned by operations on a closed stream.
var ErrClosed = errors.New("portaudio: stream closed")

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New("portaudio: " + C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times. A failed call is retried by the next.
func Initialize() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initialized {
		return nil
	}
	if err := paError(C.Pa_Initialize()); err != nil {
		return err
	}
	initialized = true
	return nil
}

// Terminate releases the PortAudio library. Streams must be closed first.
// It is a no-op when the library is not initialized, and Initialize may be
// called again afterwards.
func Terminate() error {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized {
		return nil
	}
	initialized = false
	return paError(C.Pa_Terminate())
}

// DeviceInfo contains information about an output device.
type DeviceInfo struct {
	Index                    int
	Name                     string
	MaxOutputChannels        int
	DefaultLowOutputLatency  float64
	DefaultHighOutputLatency float64
	DefaultSampleRate        float64
	IsDefaultOutput          bool
}

// OutputDevices returns the devices that can play audio.
func OutputDevices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultOutput := int(C.Pa_GetDefaultOutputDevice())

	var devices []DeviceInfo
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil || info.maxOutputChannels <= 0 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:                    i,
			Name:                     C.GoString(info.name),
			MaxOutputChannels:        int(info.maxOutputChannels),
			DefaultLowOutputLatency:  float64(info.defaultLowOutputLatency),
			DefaultHighOutputLatency: float64(info.defaultHighOutputLatency),
			DefaultSampleRate:        float64(info.defaultSampleRate),
			IsDefaultOutput:          i == defaultOutput,
		})
	}
	return devices, nil
}

// DefaultOutputDevice returns the default output device.
func DefaultOutputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	idx := C.Pa_GetDefaultOutputDevice()
	if idx == C.paNoDevice {
		return nil, errors.New("portaudio: no default output device")
	}

	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("portaudio: failed to get device info")
	}

	return &DeviceInfo{
		Index:                    int(idx),
		Name:                     C.GoString(info.name),
		MaxOutputChannels:        int(info.maxOutputChannels),
		DefaultLowOutputLatency:  float64(info.defaultLowOutputLatency),
		DefaultHighOutputLatency: float64(info.defaultHighOutputLatency),
		DefaultSampleRate:        float64(info.defaultSampleRate),
		IsDefaultOutput:          true,
	}, nil
}

// stream is a blocking PortAudio output stream of 16-bit samples.
type stream struct {
	stream     unsafe.Pointer
	buffer     unsafe.Pointer
	bufferSize int
	closed     bool
	mu         sync.Mutex
}

// openOutput opens a blocking output stream on the default device.
func openOutput(channels int, sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	outputDevice := C.Pa_GetDefaultOutputDevice()
	if outputDevice == C.paNoDevice {
		return nil, errors.New("portaudio: no default output device")
	}
	outputInfo := C.Pa_GetDeviceInfo(outputDevice)
	outputParams := &C.PaStreamParameters{
		device:                    outputDevice,
		channelCount:              C.int(channels),
		sampleFormat:              C.paInt16,
		suggestedLatency:          outputInfo.defaultLowOutputLatency,
		hostApiSpecificStreamInfo: nil,
	}

	var paStream unsafe.Pointer
	err := paError(C.pa_open_stream(
		&paStream,
		outputParams,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	))
	if err != nil {
		return nil, err
	}

	bufferSize := framesPerBuffer * channels * 2 // int16 = 2 bytes
	return &stream{
		stream:     paStream,
		buffer:     C.malloc(C.size_t(bufferSize)),
		bufferSize: bufferSize,
	}, nil
}

func (s *stream) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return paError(C.pa_start_stream(s.stream))
}

// write blocks until frames fit into the device buffer. len(samples)*2 must
// not exceed the buffer size.
func (s *stream) write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if len(samples) == 0 {
		return nil
	}

	C.memcpy(s.buffer, unsafe.Pointer(&samples[0]), C.size_t(len(samples)*2))
	return paError(C.pa_write_stream(s.stream, s.buffer, C.ulong(len(samples))))
}

// close stops the stream (draining queued audio unless abort is set) and
// releases it.
func (s *stream) close(abort bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if abort {
		C.pa_abort_stream(s.stream)
	} else {
		C.pa_stop_stream(s.stream)
	}
	err := paError(C.pa_close_stream(s.stream))
	C.free(s.buffer)
	return err
}
