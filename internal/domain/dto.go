package domain

// CreateDownloadRequest represents the request body for starting a session.
type CreateDownloadRequest struct {
	Kind   RequestKind `json:"kind" validate:"required,oneof=single batch"`
	URL    string      `json:"url" validate:"required_if=Kind single"`
	IDs    []string    `json:"ids" validate:"required_if=Kind batch,dive,required"`
	Format Format      `json:"format" validate:"required,oneof=audio video"`
}

// ToRequest converts the body into a DownloadRequest.
func (r CreateDownloadRequest) ToRequest() DownloadRequest {
	return DownloadRequest{
		Kind:    r.Kind,
		URL:     r.URL,
		ItemIDs: r.IDs,
		Format:  r.Format,
	}
}

// LoadPlaylistRequest represents the request body for fetching playlist metadata.
type LoadPlaylistRequest struct {
	URL string `json:"url" validate:"required"`
}

// DownloadSelectionRequest starts a batch session over the current selection.
type DownloadSelectionRequest struct {
	Format Format `json:"format" validate:"required,oneof=audio video"`
}

// FileActionRequest names a downloaded file to open or reveal.
type FileActionRequest struct {
	Path string `json:"path" validate:"required"`
}

// SelectionResponse describes the selection over the loaded playlist.
type SelectionResponse struct {
	State    string   `json:"state"`
	Count    int      `json:"count"`
	Total    int      `json:"total"`
	Selected []string `json:"selected"`
}

// PlaylistResponse is returned for playlist queries.
type PlaylistResponse struct {
	URL       string            `json:"url"`
	Items     []PlaylistItem    `json:"items"`
	Selection SelectionResponse `json:"selection"`
}
