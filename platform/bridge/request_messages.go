package bridge

type RequestMessage interface {
	typ() string
}

type RegisterRequestMessage struct {
	Room        string `json:"room"`
	Name        string `json:"name"`
	AccessToken string `json:"accessToken"`
	Version     int    `json:"version"`
}

func (msg *RegisterRequestMessage) typ() string {
	return "register"
}

type TrackStateRequestMessage struct {
	Camera      bool `json:"camera"`
	Microphone  bool `json:"microphone"`
	ScreenShare bool `json:"screenShare"`
	ScreenAudio bool `json:"screenAudio"`
}

func (msg *TrackStateRequestMessage) typ() string {
	return "trackState"
}

type MetadataRequestMessage struct {
	Metadata string `json:"metadata"`
}

func (msg *MetadataRequestMessage) typ() string {
	return "metadata"
}

type DataRequestMessage struct {
	Payload  []byte `json:"payload"`
	Reliable bool   `json:"reliable"`
}

func (msg *DataRequestMessage) typ() string {
	return "data"
}
