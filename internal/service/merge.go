package service

import (
	"maps"

	"github.com/voyagen/drtvfeed/internal/fetcher"
	"github.com/voyagen/drtvfeed/internal/models"
)

// Merge overlays the current programme from each schedule entry onto the
// record registered for that channel. Entries whose id was not seen on the
// live page, or that carry no slots, are ignored. Only programme fields
// (title, description, poster, start/end, debug) are written; a missing
// title or description becomes null.
func Merge(records models.Channels, names map[string]string, entries []models.ScheduleEntry, params map[string]string) models.Channels {
	for _, entry := range entries {
		name, ok := names[entry.ChannelID.String()]
		if !ok {
			continue
		}
		rec, ok := records[name]
		if !ok || rec == nil || len(entry.Schedules) == 0 {
			continue
		}
		applySlot(rec, entry.Schedules[0], params)
	}
	return records
}

func applySlot(rec *models.ChannelRecord, slot models.ScheduleSlot, params map[string]string) {
	item := slot.Item

	img := item.Images.Wallpaper
	if img == "" {
		img = item.Images.Tile
	}
	if img == "" {
		img = item.PrimaryImage
	}

	desc := item.ShortDescription
	if desc == "" {
		desc = item.Description
	}

	rec.Title = item.Title
	rec.Description = models.StringPtr(desc)
	rec.Poster = models.StringPtr(fetcher.ResizeKeepAspect(img, fetcher.SchedulePosterWidth))
	rec.StartTime = models.StringPtr(slot.StartDate)
	rec.EndTime = models.StringPtr(slot.EndDate)
	rec.Debug = maps.Clone(params)
}
