// Package sdputil parses, inspects and rewrites session descriptions before
// they are handed to a browser or another peer.
package sdputil

import (
	"strings"

	"github.com/pion/sdp/v3"
)

const (
	attrRTPMap = "rtpmap"
	attrFmtp   = "fmtp"
	attrRTCPFb = "rtcp-fb"
	mediaVideo = "video"
	paramPLID  = "profile-level-id"
	codecH264  = "H264"
)

// Parse unmarshals SDP text. Errors come straight from pion/sdp.
func Parse(sdpText string) (*sdp.SessionDescription, error) {
	parsed := &sdp.SessionDescription{}
	if err := parsed.Unmarshal([]byte(sdpText)); err != nil {
		return nil, err
	}
	return parsed, nil
}

// Marshal serializes a parsed description back to text.
func Marshal(parsed *sdp.SessionDescription) (string, error) {
	out, err := parsed.Marshal()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// payloadOf returns the leading payload type token of an rtpmap, fmtp or
// rtcp-fb attribute value.
func payloadOf(value string) string {
	pt, _, _ := strings.Cut(strings.TrimSpace(value), " ")
	return pt
}

// codecOf returns the encoding name of an rtpmap value such as "96 VP8/90000".
func codecOf(value string) string {
	_, rest, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

// findCodec returns the payload type and attribute index of the first rtpmap
// whose encoding name satisfies match against codec.
func findCodec(media *sdp.MediaDescription, codec string, match func(a, b string) bool) (string, int, bool) {
	for i, attr := range media.Attributes {
		if attr.Key != attrRTPMap {
			continue
		}
		if match(codecOf(attr.Value), codec) {
			return payloadOf(attr.Value), i, true
		}
	}
	return "", -1, false
}

func sameCodec(a, b string) bool { return a == b }

func firstMedia(parsed *sdp.SessionDescription, kind string) *sdp.MediaDescription {
	for _, media := range parsed.MediaDescriptions {
		if media.MediaName.Media == kind {
			return media
		}
	}
	return nil
}
