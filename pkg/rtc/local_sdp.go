// Package rtc holds helpers that sit between an application and a pion
// peer connection: local description creation and media teardown.
package rtc

import (
	"errors"
	"fmt"

	"rtckit/pkg/sdputil"

	"github.com/pion/webrtc/v3"
)

const (
	TypeOffer  = "offer"
	TypeAnswer = "answer"
)

var (
	// ErrInvalidSDPType is returned when the requested description type is
	// neither an offer nor an answer.
	ErrInvalidSDPType = errors.New("invalid sdp type")

	errNoLocalDescription = errors.New("peer connection has no local description")
)

// PeerConnection is the part of *webrtc.PeerConnection CreateLocalSDP needs.
type PeerConnection interface {
	CreateOffer(options *webrtc.OfferOptions) (webrtc.SessionDescription, error)
	CreateAnswer(options *webrtc.AnswerOptions) (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	LocalDescription() *webrtc.SessionDescription
}

// Options controls offer/answer creation. ICERestart only applies to offers.
type Options struct {
	VoiceActivityDetection bool
	ICERestart             bool
}

func (o Options) offer() *webrtc.OfferOptions {
	return &webrtc.OfferOptions{
		OfferAnswerOptions: webrtc.OfferAnswerOptions{VoiceActivityDetection: o.VoiceActivityDetection},
		ICERestart:         o.ICERestart,
	}
}

func (o Options) answer() *webrtc.AnswerOptions {
	return &webrtc.AnswerOptions{
		OfferAnswerOptions: webrtc.OfferAnswerOptions{VoiceActivityDetection: o.VoiceActivityDetection},
	}
}

// ValidateType checks that sdpType names an offer or an answer.
func ValidateType(sdpType string) error {
	if sdpType != TypeOffer && sdpType != TypeAnswer {
		return fmt.Errorf("%w: type must be %q or %q, but %q was given", ErrInvalidSDPType, TypeOffer, TypeAnswer, sdpType)
	}
	return nil
}

// CreateLocalSDP creates an offer or answer on pc, installs it as the local
// description and returns the resulting SDP after munging it with
// preferredCodec. An invalid sdpType is rejected before pc is used.
//
// Calls on the same connection must not overlap.
func CreateLocalSDP(pc PeerConnection, sdpType string, opts Options, preferredCodec string) (string, error) {
	if err := ValidateType(sdpType); err != nil {
		return "", err
	}

	sdpText, err := setLocalDescription(pc, sdpType, opts)
	if err == nil {
		sdpText, err = sdputil.Munge(sdpText, preferredCodec)
	}
	if err != nil {
		return "", fmt.Errorf("error creating local SDP or setting local description: %w", err)
	}
	return sdpText, nil
}

func setLocalDescription(pc PeerConnection, sdpType string, opts Options) (string, error) {
	var (
		desc webrtc.SessionDescription
		err  error
	)
	if sdpType == TypeOffer {
		desc, err = pc.CreateOffer(opts.offer())
	} else {
		desc, err = pc.CreateAnswer(opts.answer())
	}
	if err != nil {
		return "", err
	}

	if err := pc.SetLocalDescription(desc); err != nil {
		return "", err
	}

	local := pc.LocalDescription()
	if local == nil {
		return "", errNoLocalDescription
	}
	return local.SDP, nil
}
