package domain

type LocalDescriptionRequest struct {
	Type                   string
	PreferredCodec         string
	RemoteSDP              string
	AudioDirection         string
	VideoDirection         string
	ICERestart             bool
	VoiceActivityDetection bool
}

type LocalDescription struct {
	Type       string              `json:"type"`
	SDP        string              `json:"sdp"`
	Directions map[string][]string `json:"directions"`
}
