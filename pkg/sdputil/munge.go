package sdputil

import (
	"errors"
	"strings"

	"github.com/pion/sdp/v3"
)

// H264ProfileLevelID is the fmtp line appended to H264 payloads that do not
// announce a profile: constrained baseline 3.1, non-interleaved mode.
const H264ProfileLevelID = "profile-level-id=42e01f;packetization-mode=1;level-asymmetry-allowed=1"

// ErrNoVideoSection is returned when a preferred codec is requested for a
// description that carries no video section.
var ErrNoVideoSection = errors.New("sdputil: preferred codec requested but description has no video section")

// Munge parses sdpText, applies MungeDescription and serializes the result.
// Nothing is returned when any step fails.
func Munge(sdpText, preferredCodec string) (string, error) {
	parsed, err := Parse(sdpText)
	if err != nil {
		return "", err
	}

	if err := MungeDescription(parsed, preferredCodec); err != nil {
		return "", err
	}

	return Marshal(parsed)
}

// MungeDescription fixes a parsed description in place:
//
//   - the first video section offering H264 (exact encoding name) gets a
//     profile-level-id fmtp line unless it already has one for that payload
//     type;
//   - rtcp-fb lines referencing payload types missing from their section's
//     format list are dropped, "*" included;
//   - when preferredCodec is set, its payload type is moved to the front of
//     the first video section's format list.
//
// The description is left untouched when an error is returned.
func MungeDescription(parsed *sdp.SessionDescription, preferredCodec string) error {
	var video *sdp.MediaDescription
	if preferredCodec != "" {
		if video = firstMedia(parsed, mediaVideo); video == nil {
			return ErrNoVideoSection
		}
	}

	addH264ProfileLevelID(parsed)
	pruneOrphanedFeedback(parsed)

	if video != nil {
		PreferCodec(video, preferredCodec)
	}
	return nil
}

func addH264ProfileLevelID(parsed *sdp.SessionDescription) {
	for _, media := range parsed.MediaDescriptions {
		if media.MediaName.Media != mediaVideo {
			continue
		}

		pt, idx, ok := findCodec(media, codecH264, sameCodec)
		if !ok {
			continue
		}

		if !hasFmtpParam(media, pt, paramPLID) {
			fmtp := sdp.NewAttribute(attrFmtp, pt+" "+H264ProfileLevelID)
			media.Attributes = insertAttribute(media.Attributes, idx+1, fmtp)
		}
		return
	}
}

func hasFmtpParam(media *sdp.MediaDescription, pt, param string) bool {
	for _, attr := range media.Attributes {
		if attr.Key == attrFmtp && payloadOf(attr.Value) == pt && strings.Contains(attr.Value, param) {
			return true
		}
	}
	return false
}

func insertAttribute(attrs []sdp.Attribute, at int, attr sdp.Attribute) []sdp.Attribute {
	out := make([]sdp.Attribute, 0, len(attrs)+1)
	out = append(out, attrs[:at]...)
	out = append(out, attr)
	return append(out, attrs[at:]...)
}

func pruneOrphanedFeedback(parsed *sdp.SessionDescription) {
	for _, media := range parsed.MediaDescriptions {
		offered := make(map[string]struct{}, len(media.MediaName.Formats))
		for _, format := range media.MediaName.Formats {
			offered[format] = struct{}{}
		}

		kept := make([]sdp.Attribute, 0, len(media.Attributes))
		for _, attr := range media.Attributes {
			if attr.Key == attrRTCPFb {
				pt := payloadOf(attr.Value)
				if _, ok := offered[pt]; !ok {
					continue
				}
			}
			kept = append(kept, attr)
		}
		media.Attributes = kept
	}
}

// PreferCodec moves the payload type of the first rtpmap matching codec
// (case-insensitive) to the front of the section's format list. Other
// payload types keep their relative order. It reports whether the codec was
// found in the format list.
func PreferCodec(media *sdp.MediaDescription, codec string) bool {
	pt, _, ok := findCodec(media, codec, strings.EqualFold)
	if !ok {
		return false
	}

	formats := media.MediaName.Formats
	idx := -1
	for i, format := range formats {
		if format == pt {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		return false
	case idx == 0:
		return true
	}

	reordered := make([]string, 0, len(formats))
	reordered = append(reordered, pt)
	reordered = append(reordered, formats[:idx]...)
	reordered = append(reordered, formats[idx+1:]...)
	media.MediaName.Formats = reordered
	return true
}
