package dto

// Result is the envelope every write endpoint returns.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	FullPath string `json:"fullPath,omitempty"`
	Error    string `json:"error,omitempty"`
	Persons  *int   `json:"persons,omitempty"`
}

type UploadImageRequest struct {
	Filename     string `json:"filename"`
	EncodedImage string `json:"encodedImage"`
	// ImageData is the field name sent by the browser client.
	ImageData    string `json:"imageData,omitempty"`
}

// Encoded returns the image payload from whichever field carried it.
func (r UploadImageRequest) Encoded() string {
	if r.EncodedImage != "" {
		return r.EncodedImage
	}
	return r.ImageData
}

type DirectoryStatus struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Writable bool   `json:"writable"`
}

type MirrorStatus struct {
	Bucket    string `json:"bucket"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

type EventsStatus struct {
	Sink      string `json:"sink"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

type StatusResponse struct {
	Status      string                     `json:"status"`
	ServerTime  string                     `json:"serverTime"`
	ProjectRoot string                     `json:"projectRoot"`
	Directories map[string]DirectoryStatus `json:"directories"`
	// DocumentURL is where the canonical document is served, e.g.
	// /data/persons.json.
	DocumentURL string                     `json:"documentUrl,omitempty"`
	Mirror      *MirrorStatus              `json:"mirror,omitempty"`
	Events      *EventsStatus              `json:"events,omitempty"`
}
