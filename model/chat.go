package model

// Mood is one of the fixed emotion categories derived from user text.
type Mood string

const (
	MoodSad      Mood = "sad"
	MoodHappy    Mood = "happy"
	MoodAngry    Mood = "angry"
	MoodAnxious  Mood = "anxious"
	MoodStressed Mood = "stressed"
	MoodNeutral  Mood = "neutral"
	MoodCrisis   Mood = "crisis"
)

// ChatRequest is the request body for sending a message.
// SessionID is optional; requests without one share a process-wide session.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// TrackInfo is a compact descriptor of a recommended track.
type TrackInfo struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// ChatResponse is the externally visible result of one chat turn.
// Music is omitted when no recommendation could be attached.
type ChatResponse struct {
	Reply string     `json:"reply"`
	Mood  Mood       `json:"mood"`
	Music *TrackInfo `json:"music,omitempty"`
}

// HealthResponse is the response body for the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// ErrorResponse is the JSON shape of all error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}
