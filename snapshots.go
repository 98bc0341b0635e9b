package meet

// DeviceMessage is one chat log entry as handed to the UI. Text is the
// ciphertext; the UI decrypts lazily with the meeting code.
type DeviceMessage struct {
	Id        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	IsLocal   bool   `json:"isLocal"`
}

// DeviceReaction is one floating reaction currently on screen.
type DeviceReaction struct {
	Id       string `json:"id"`
	Emoji    string `json:"emoji"`
	SenderId string `json:"senderId"`
}
