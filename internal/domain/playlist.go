package domain

// PlaylistItem is one entry of a playlist as reported by the fetcher.
type PlaylistItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Duration  string `json:"duration"`
	Thumbnail string `json:"thumbnail"`
}

// ItemIDs returns the ids of items in order.
func ItemIDs(items []PlaylistItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
