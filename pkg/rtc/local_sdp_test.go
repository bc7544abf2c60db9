package rtc

import (
	"errors"
	"strings"
	"testing"

	"rtckit/pkg/sdputil"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPeerConnection struct {
	mock.Mock
}

func (m *MockPeerConnection) CreateOffer(options *webrtc.OfferOptions) (webrtc.SessionDescription, error) {
	args := m.Called(options)
	return args.Get(0).(webrtc.SessionDescription), args.Error(1)
}

func (m *MockPeerConnection) CreateAnswer(options *webrtc.AnswerOptions) (webrtc.SessionDescription, error) {
	args := m.Called(options)
	return args.Get(0).(webrtc.SessionDescription), args.Error(1)
}

func (m *MockPeerConnection) SetLocalDescription(desc webrtc.SessionDescription) error {
	args := m.Called(desc)
	return args.Error(0)
}

func (m *MockPeerConnection) LocalDescription() *webrtc.SessionDescription {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*webrtc.SessionDescription)
}

const videoOffer = "v=0\r\n" +
	"o=- 1 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96 102\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=mid:0\r\n" +
	"a=sendrecv\r\n" +
	"a=rtpmap:96 VP8/90000\r\n" +
	"a=rtpmap:102 H264/90000\r\n" +
	"a=rtcp-fb:103 nack\r\n"

func TestCreateLocalSDP_RejectsUnknownType(t *testing.T) {
	pc := new(MockPeerConnection)

	sdp, err := CreateLocalSDP(pc, "bogus", Options{}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSDPType)
	assert.Contains(t, err.Error(), `type must be "offer" or "answer", but "bogus" was given`)
	assert.Empty(t, sdp)
	pc.AssertNotCalled(t, "CreateOffer", mock.Anything)
	pc.AssertNotCalled(t, "CreateAnswer", mock.Anything)
	pc.AssertNotCalled(t, "SetLocalDescription", mock.Anything)
	pc.AssertNotCalled(t, "LocalDescription")
}

func TestCreateLocalSDP_Offer(t *testing.T) {
	pc := new(MockPeerConnection)
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: videoOffer}

	pc.On("CreateOffer", &webrtc.OfferOptions{ICERestart: true}).Return(offer, nil)
	pc.On("SetLocalDescription", offer).Return(nil)
	pc.On("LocalDescription").Return(&offer)

	out, err := CreateLocalSDP(pc, TypeOffer, Options{ICERestart: true}, "H264")
	require.NoError(t, err)

	parsed, err := sdputil.Parse(out)
	require.NoError(t, err)
	video := parsed.MediaDescriptions[0]
	assert.Equal(t, []string{"102", "96"}, video.MediaName.Formats)
	assert.Contains(t, out, "a=fmtp:102 "+sdputil.H264ProfileLevelID)
	assert.NotContains(t, out, "rtcp-fb:103")
	pc.AssertExpectations(t)
	pc.AssertNotCalled(t, "CreateAnswer", mock.Anything)
}

func TestCreateLocalSDP_Answer(t *testing.T) {
	pc := new(MockPeerConnection)
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: videoOffer}
	opts := Options{VoiceActivityDetection: true, ICERestart: true}

	pc.On("CreateAnswer", &webrtc.AnswerOptions{
		OfferAnswerOptions: webrtc.OfferAnswerOptions{VoiceActivityDetection: true},
	}).Return(answer, nil)
	pc.On("SetLocalDescription", answer).Return(nil)
	pc.On("LocalDescription").Return(&answer)

	_, err := CreateLocalSDP(pc, TypeAnswer, opts, "")
	require.NoError(t, err)
	pc.AssertExpectations(t)
	pc.AssertNotCalled(t, "CreateOffer", mock.Anything)
}

func TestCreateLocalSDP_Failures(t *testing.T) {
	boom := errors.New("boom")
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: videoOffer}
	audioOnly := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: strings.Replace(videoOffer, "m=video", "m=audio", 1)}

	cases := []struct {
		name   string
		setup  func(pc *MockPeerConnection)
		codec  string
		target error
	}{
		{
			name: "create offer fails",
			setup: func(pc *MockPeerConnection) {
				pc.On("CreateOffer", mock.Anything).Return(webrtc.SessionDescription{}, boom)
			},
			target: boom,
		},
		{
			name: "set local description fails",
			setup: func(pc *MockPeerConnection) {
				pc.On("CreateOffer", mock.Anything).Return(offer, nil)
				pc.On("SetLocalDescription", offer).Return(boom)
			},
			target: boom,
		},
		{
			name: "no local description",
			setup: func(pc *MockPeerConnection) {
				pc.On("CreateOffer", mock.Anything).Return(offer, nil)
				pc.On("SetLocalDescription", offer).Return(nil)
				pc.On("LocalDescription").Return(nil)
			},
			target: errNoLocalDescription,
		},
		{
			name: "munging fails",
			setup: func(pc *MockPeerConnection) {
				pc.On("CreateOffer", mock.Anything).Return(audioOnly, nil)
				pc.On("SetLocalDescription", audioOnly).Return(nil)
				pc.On("LocalDescription").Return(&audioOnly)
			},
			codec:  "VP8",
			target: sdputil.ErrNoVideoSection,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pc := new(MockPeerConnection)
			tc.setup(pc)

			out, err := CreateLocalSDP(pc, TypeOffer, Options{}, tc.codec)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			assert.True(t, strings.HasPrefix(err.Error(), "error creating local SDP or setting local description: "))
			assert.Empty(t, out)
		})
	}
}

func TestCreateLocalSDP_PionPeerConnection(t *testing.T) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer pc.Close()

	_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio)
	require.NoError(t, err)
	_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo)
	require.NoError(t, err)

	out, err := CreateLocalSDP(pc, TypeOffer, Options{}, "vp9")
	require.NoError(t, err)

	parsed, err := sdputil.Parse(out)
	require.NoError(t, err)

	var video []string
	for _, media := range parsed.MediaDescriptions {
		if media.MediaName.Media == "video" {
			video = media.MediaName.Formats
			for _, attr := range media.Attributes {
				if attr.Key == "rtpmap" && strings.HasPrefix(attr.Value, video[0]+" ") {
					assert.Contains(t, attr.Value, "VP9/90000")
				}
			}
		}
	}
	require.NotEmpty(t, video)
	assert.Equal(t, map[string][]string{"audio": {"sendrecv"}, "video": {"sendrecv"}}, sdputil.Directions(parsed))
}
