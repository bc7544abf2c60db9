package sdputil

import "github.com/pion/sdp/v3"

// MediaDirections maps each media type to the direction of every section of
// that type, in the order the sections appear.
func MediaDirections(sdpText string) (map[string][]string, error) {
	parsed, err := Parse(sdpText)
	if err != nil {
		return nil, err
	}
	return Directions(parsed), nil
}

// Directions is MediaDirections for an already parsed description. A section
// without a direction attribute takes the session-level one, and sendrecv
// when there is none.
func Directions(parsed *sdp.SessionDescription) map[string][]string {
	fallback, ok := direction(parsed.Attributes)
	if !ok {
		fallback = sdp.AttrKeySendRecv
	}

	directions := make(map[string][]string)
	for _, media := range parsed.MediaDescriptions {
		dir, ok := direction(media.Attributes)
		if !ok {
			dir = fallback
		}
		kind := media.MediaName.Media
		directions[kind] = append(directions[kind], dir)
	}
	return directions
}

func direction(attrs []sdp.Attribute) (string, bool) {
	for _, attr := range attrs {
		switch attr.Key {
		case sdp.AttrKeySendRecv, sdp.AttrKeySendOnly, sdp.AttrKeyRecvOnly, sdp.AttrKeyInactive:
			return attr.Key, true
		}
	}
	return "", false
}
