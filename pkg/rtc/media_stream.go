package rtc

import (
	"sync"

	"github.com/pion/webrtc/v3"
)

// Track is anything that can be stopped. *webrtc.RTPSender,
// *webrtc.RTPReceiver and *webrtc.RTPTransceiver all qualify.
type Track interface {
	Stop() error
}

type trackLister interface {
	GetTracks() []Track
}

type kindTrackLister interface {
	GetAudioTracks() []Track
	GetVideoTracks() []Track
}

type streamStopper interface {
	Stop() error
}

// streamCloser stops what it can reach through one capability of stream and
// reports whether stream had that capability.
type streamCloser func(stream any) bool

// streamClosers is tried in order; the first capability the stream has wins.
var streamClosers = []streamCloser{
	stopAllTracks,
	stopTracksByKind,
	stopStream,
}

// CloseMediaStream releases a media stream. It prefers stopping every track
// from GetTracks, then audio and video tracks separately, and finally a
// stream-wide Stop. Stop failures are ignored; a nil stream is a no-op.
func CloseMediaStream(stream any) {
	if stream == nil {
		return
	}
	for _, closer := range streamClosers {
		if closer(stream) {
			return
		}
	}
}

func stopAllTracks(stream any) bool {
	lister, ok := stream.(trackLister)
	if !ok {
		return false
	}
	stopTracks(lister.GetTracks())
	return true
}

func stopTracksByKind(stream any) bool {
	lister, ok := stream.(kindTrackLister)
	if !ok {
		return false
	}
	stopTracks(lister.GetAudioTracks())
	stopTracks(lister.GetVideoTracks())
	return true
}

func stopStream(stream any) bool {
	stopper, ok := stream.(streamStopper)
	if !ok {
		return false
	}
	_ = stopper.Stop()
	return true
}

func stopTracks(tracks []Track) {
	for _, track := range tracks {
		if track != nil {
			_ = track.Stop()
		}
	}
}

// MediaStream groups audio and video tracks under a stream id.
type MediaStream struct {
	id string

	mu    sync.RWMutex
	audio []Track
	video []Track
}

// NewMediaStream creates an empty stream.
func NewMediaStream(id string) *MediaStream {
	return &MediaStream{id: id}
}

// StreamFromTransceivers builds a stream whose tracks are the given
// transceivers, grouped by kind. Transceivers of unknown kind are skipped.
func StreamFromTransceivers(id string, transceivers []*webrtc.RTPTransceiver) *MediaStream {
	stream := NewMediaStream(id)
	for _, tr := range transceivers {
		if tr == nil {
			continue
		}
		stream.AddTrack(tr.Kind(), tr)
	}
	return stream
}

func (s *MediaStream) ID() string {
	return s.id
}

// AddTrack adds t as an audio or video track. Other kinds are ignored.
func (s *MediaStream) AddTrack(kind webrtc.RTPCodecType, t Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case webrtc.RTPCodecTypeAudio:
		s.audio = append(s.audio, t)
	case webrtc.RTPCodecTypeVideo:
		s.video = append(s.video, t)
	}
}

// GetTracks returns audio tracks followed by video tracks.
func (s *MediaStream) GetTracks() []Track {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks := make([]Track, 0, len(s.audio)+len(s.video))
	tracks = append(tracks, s.audio...)
	return append(tracks, s.video...)
}

func (s *MediaStream) GetAudioTracks() []Track {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Track(nil), s.audio...)
}

func (s *MediaStream) GetVideoTracks() []Track {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Track(nil), s.video...)
}
