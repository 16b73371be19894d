package models

// ScheduleEntry is one channel's slice of the schedule API response.
type ScheduleEntry struct {
	ChannelID FlexID         `json:"channelId"`
	Schedules []ScheduleSlot `json:"schedules"`
}

// ScheduleSlot is a single programme airing, ordered earliest first within an entry.
type ScheduleSlot struct {
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
	Item      ScheduleItem `json:"item"`
}

// ScheduleItem describes the programme airing in a slot.
type ScheduleItem struct {
	Title            *string    `json:"title"`
	ShortDescription string     `json:"shortDescription"`
	Description      string     `json:"description"`
	Images           ItemImages `json:"images"`
	PrimaryImage     string     `json:"primaryImage"`
}

// ItemImages are the image variants the provider attaches to items.
type ItemImages struct {
	Logo      string `json:"logo"`
	Wallpaper string `json:"wallpaper"`
	Tile      string `json:"tile"`
}
