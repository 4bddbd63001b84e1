package commands

import (
	"log/slog"
	"time"

	"github.com/xih/designer-search-sub000/pkg/audio/pcm"
	"github.com/xih/designer-search-sub000/pkg/audio/playback"
	"github.com/xih/designer-search-sub000/pkg/audio/portaudio"
)

// speakerBuffer is the PortAudio buffer length.
const speakerBuffer = 50 * time.Millisecond

// openSpeaker opens the default output device.
func openSpeaker(format pcm.Format) (playback.Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return portaudio.NewOutputStream(format, speakerBuffer)
}

// terminateAudio releases the audio library once playback is over.
var terminateAudio = portaudio.Terminate

// closeSpeakers is deferred by commands that play through the speakers.
func closeSpeakers(logger *slog.Logger) {
	if err := terminateAudio(); err != nil {
		logger.Warn("speakers: terminate", "error", err)
	}
}
