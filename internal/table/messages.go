package table

// ChatMessage relays a chat line: [sender, text].
type ChatMessage struct {
	Message [2]string `json:"message"`
}

// WhisperMessage is a private chat line: [sender, text].
type WhisperMessage struct {
	Whisper [2]string `json:"whisper"`
}

// Announcement reports seats joining and leaving.
type Announcement struct {
	Announcement string `json:"announcement"`
}

const systemSender = "System"
