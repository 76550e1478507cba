package storage

const (
	// KeyItems holds the JSON array of timeline items.
	KeyItems = "timeline-items"
	// KeyProfile holds the JSON object of the hero profile.
	KeyProfile = "timeline-profile"
)
