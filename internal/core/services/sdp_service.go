package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
	"rtckit/pkg/rtc"
	"rtckit/pkg/sdputil"
	"rtckit/pkg/tracing"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// PeerConnectionFactory creates fresh peer connections for negotiation.
type PeerConnectionFactory interface {
	NewPeerConnection(ctx context.Context) (*webrtc.PeerConnection, error)
}

type SDPServiceConfig struct {
	PreferredCodec     string
	NegotiationTimeout time.Duration
}

type localSDPFunc func(pc rtc.PeerConnection, sdpType string, opts rtc.Options, preferredCodec string) (string, error)

type sdpService struct {
	factory  PeerConnectionFactory
	config   SDPServiceConfig
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger
	localSDP localSDPFunc
}

func NewSDPService(
	factory PeerConnectionFactory,
	config SDPServiceConfig,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.SDPService {
	return &sdpService{
		factory:  factory,
		config:   config,
		metrics:  metrics,
		logger:   logger,
		localSDP: rtc.CreateLocalSDP,
	}
}

func (s *sdpService) codec(preferred string) string {
	if preferred != "" {
		return preferred
	}
	return s.config.PreferredCodec
}

func (s *sdpService) Munge(ctx context.Context, sdpText, preferredCodec string) (string, error) {
	codec := s.codec(preferredCodec)
	ctx, span := tracing.TraceSDP(ctx, "munge", tracing.CodecKey.String(codec))
	defer span.End()

	out, err := sdputil.Munge(sdpText, codec)
	switch {
	case err == nil:
		s.metrics.RecordMunge(ports.MungeResultOK)
		return out, nil
	case errors.Is(err, sdputil.ErrNoVideoSection):
		s.metrics.RecordMunge(ports.MungeResultNoVideo)
	default:
		s.metrics.RecordMunge(ports.MungeResultInvalid)
	}

	tracing.RecordError(ctx, err)
	s.logger.Warnw("sdp munge failed", "codec", codec, "error", err)
	return "", err
}

func (s *sdpService) MediaDirections(ctx context.Context, sdpText string) (map[string][]string, error) {
	ctx, span := tracing.TraceSDP(ctx, "directions")
	defer span.End()

	directions, err := sdputil.MediaDirections(sdpText)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return directions, nil
}

func (s *sdpService) CreateLocalDescription(ctx context.Context, req domain.LocalDescriptionRequest) (domain.LocalDescription, error) {
	if err := rtc.ValidateType(req.Type); err != nil {
		return domain.LocalDescription{}, err
	}
	if req.Type == rtc.TypeAnswer && strings.TrimSpace(req.RemoteSDP) == "" {
		return domain.LocalDescription{}, domain.ErrRemoteSDPRequired
	}
	audioDirection, err := transceiverDirection(req.AudioDirection)
	if err != nil {
		return domain.LocalDescription{}, err
	}
	videoDirection, err := transceiverDirection(req.VideoDirection)
	if err != nil {
		return domain.LocalDescription{}, err
	}

	codec := s.codec(req.PreferredCodec)
	ctx, span := tracing.TraceSDP(ctx, "create_local_description",
		tracing.SDPTypeKey.String(req.Type),
		tracing.CodecKey.String(codec),
	)
	defer span.End()

	if s.config.NegotiationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.NegotiationTimeout)
		defer cancel()
	}

	start := time.Now()
	sdpText, err := s.negotiate(ctx, req, codec, audioDirection, videoDirection)
	if err != nil {
		tracing.RecordError(ctx, err)
		s.logger.Warnw("local description failed", "type", req.Type, "codec", codec, "error", err)
		return domain.LocalDescription{}, err
	}
	s.metrics.ObserveNegotiation(req.Type, time.Since(start))

	directions, err := sdputil.MediaDirections(sdpText)
	if err != nil {
		return domain.LocalDescription{}, err
	}

	s.logger.Debugw("local description created", "type", req.Type, "codec", codec, "duration", time.Since(start))
	return domain.LocalDescription{
		Type:       req.Type,
		SDP:        sdpText,
		Directions: directions,
	}, nil
}

func (s *sdpService) negotiate(
	ctx context.Context,
	req domain.LocalDescriptionRequest,
	codec string,
	audioDirection, videoDirection webrtc.RTPTransceiverDirection,
) (string, error) {
	pc, err := s.factory.NewPeerConnection(ctx)
	if err != nil {
		return "", err
	}
	defer s.release(pc)

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{Direction: audioDirection}); err != nil {
		return "", fmt.Errorf("failed to add audio transceiver: %w", err)
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{Direction: videoDirection}); err != nil {
		return "", fmt.Errorf("failed to add video transceiver: %w", err)
	}

	if req.Type == rtc.TypeAnswer {
		offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: req.RemoteSDP}
		if err := pc.SetRemoteDescription(offer); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidRemoteSDP, err)
		}
	}

	opts := rtc.Options{
		VoiceActivityDetection: req.VoiceActivityDetection,
		ICERestart:             req.ICERestart,
	}

	type result struct {
		sdp string
		err error
	}
	done := make(chan result, 1)
	go func() {
		sdpText, err := s.localSDP(pc, req.Type, opts, codec)
		done <- result{sdpText, err}
	}()

	select {
	case r := <-done:
		return r.sdp, r.err
	case <-ctx.Done():
		// Closing fails the pending call; pc must not be in use once we return.
		if err := pc.Close(); err != nil {
			s.logger.Warnw("failed to close peer connection", "error", err)
		}
		<-done
		return "", fmt.Errorf("local description not ready: %w", ctx.Err())
	}
}

// release stops every transceiver's media and closes the connection.
func (s *sdpService) release(pc *webrtc.PeerConnection) {
	rtc.CloseMediaStream(rtc.StreamFromTransceivers(uuid.NewString(), pc.GetTransceivers()))
	if err := pc.Close(); err != nil {
		s.logger.Warnw("failed to close peer connection", "error", err)
	}
}

// transceiverDirection maps a requested direction onto the ones a new local
// transceiver can take. Empty means sendrecv.
func transceiverDirection(direction string) (webrtc.RTPTransceiverDirection, error) {
	if direction == "" {
		return webrtc.RTPTransceiverDirectionSendrecv, nil
	}
	switch d := webrtc.NewRTPTransceiverDirection(direction); d {
	case webrtc.RTPTransceiverDirectionSendrecv,
		webrtc.RTPTransceiverDirectionSendonly,
		webrtc.RTPTransceiverDirectionRecvonly:
		return d, nil
	}
	return webrtc.RTPTransceiverDirection(webrtc.Unknown), fmt.Errorf("%w: %q", domain.ErrInvalidDirection, direction)
}
