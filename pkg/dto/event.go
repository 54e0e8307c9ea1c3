package dto

const (
	EventDocumentUpdated = "document_updated"
	EventImageUploaded   = "image_uploaded"
)

// Event announces a completed write. It is delivered over the WebSocket
// feed and, when configured, NATS.
type Event struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Persons   int    `json:"persons,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	Timestamp string `json:"timestamp"`
}
