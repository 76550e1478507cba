package model

// Item is one timeline entry.
type Item struct {
	// ID is assigned by the timeline store. Seed records may omit it.
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"` // YYYY-MM-DD
	Title       string `json:"title"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	Excluded    bool   `json:"excluded"`
}

// NewItem carries the caller-supplied fields of an item being added.
// ID and Excluded are always decided by the store.
type NewItem struct {
	Date        string
	Title       string
	Action      string
	Description string
	URL         string
	ImageURL    string
	Emoji       string
}

// ItemPatch is a shallow partial update. Nil fields are left untouched.
type ItemPatch struct {
	Date        *string
	Title       *string
	Action      *string
	Description *string
	URL         *string
	ImageURL    *string
	Emoji       *string
	Excluded    *bool
}

// Apply returns it with every non-nil patch field overwritten.
func (p ItemPatch) Apply(it Item) Item {
	if p.Date != nil {
		it.Date = *p.Date
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Action != nil {
		it.Action = *p.Action
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.URL != nil {
		it.URL = *p.URL
	}
	if p.ImageURL != nil {
		it.ImageURL = *p.ImageURL
	}
	if p.Emoji != nil {
		it.Emoji = *p.Emoji
	}
	if p.Excluded != nil {
		it.Excluded = *p.Excluded
	}
	return it
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p == ItemPatch{}
}

// Profile is the hero section record.
type Profile struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// IconURL is a path, a URL or a data URL written by the icon upload flow.
	IconURL string `json:"iconUrl"`
}

// ProfilePatch is a shallow partial update of a Profile.
type ProfilePatch struct {
	Title       *string
	Description *string
	IconURL     *string
}

func (p ProfilePatch) Apply(pr Profile) Profile {
	if p.Title != nil {
		pr.Title = *p.Title
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.IconURL != nil {
		pr.IconURL = *p.IconURL
	}
	return pr
}
