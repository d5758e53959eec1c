package model

// Gemini generateContent wire format.

// GeminiPart is a single text part of a content block.
type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

// GeminiContent is one turn of a conversation ("user" or "model").
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiRequest is the request body for :generateContent.
type GeminiRequest struct {
	Contents          []GeminiContent `json:"contents"`
	SystemInstruction *GeminiContent  `json:"systemInstruction,omitempty"`
}

// GeminiCandidate is one completion candidate.
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

// GeminiResponse is the response body for :generateContent.
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

// GeminiCountTokensRequest is the request body for :countTokens.
type GeminiCountTokensRequest struct {
	Contents []GeminiContent `json:"contents"`
}

// GeminiCountTokensResponse is the response body for :countTokens.
type GeminiCountTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

// GeminiModelInfo is one entry of the models listing.
type GeminiModelInfo struct {
	Name string `json:"name"`
}

// GeminiModelList is the response body for the models listing.
type GeminiModelList struct {
	Models []GeminiModelInfo `json:"models"`
}
