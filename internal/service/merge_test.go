package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/drtvfeed/internal/models"
)

func liveRecord(id string) *models.ChannelRecord {
	rec := models.NewChannelRecord(id)
	rec.Logo = models.StringPtr("https://img.test/logo?Width=320&Height=320")
	rec.Streams = models.Streams{HLSPrimary: models.StringPtr("https://stream.test/" + id + ".m3u8")}
	rec.PrimaryStream = models.StringPtr("https://stream.test/" + id + ".m3u8")
	return rec
}

func TestMerge_FirstSlotOverlay(t *testing.T) {
	records := models.Channels{"DR1": liveRecord("20875")}
	names := map[string]string{"20875": "DR1"}
	entries := []models.ScheduleEntry{{
		ChannelID: "20875",
		Schedules: []models.ScheduleSlot{
			{StartDate: "2024-01-01T20:00:00", EndDate: "2024-01-01T20:30:00", Item: models.ScheduleItem{
				Title:            models.StringPtr("Nyheder"),
				ShortDescription: "Kort",
				Description:      "Lang",
				Images:           models.ItemImages{Wallpaper: "https://img.test/w?Width=50&Height=50"},
			}},
			{StartDate: "2024-01-01T20:30:00", Item: models.ScheduleItem{Title: models.StringPtr("Later")}},
		},
	}}
	params := map[string]string{"hour": "20"}

	out := Merge(records, names, entries, params)
	rec := out["DR1"]
	require.NotNil(t, rec)
	assert.Equal(t, models.StringPtr("Nyheder"), rec.Title)
	assert.Equal(t, models.StringPtr("Kort"), rec.Description)
	require.NotNil(t, rec.Poster)
	assert.Equal(t, "https://img.test/w?Width=100", *rec.Poster)
	assert.Equal(t, "2024-01-01T20:00:00", *rec.StartTime)
	assert.Equal(t, "2024-01-01T20:30:00", *rec.EndTime)
	assert.Equal(t, params, rec.Debug)

	params["hour"] = "21"
	assert.Equal(t, "20", rec.Debug["hour"], "debug is a copy")
}

func TestMerge_PosterFallbacks(t *testing.T) {
	tests := []struct {
		name string
		item models.ScheduleItem
		want *string
	}{
		{"tile", models.ScheduleItem{Images: models.ItemImages{Tile: "https://img.test/t?Width=1"}}, models.StringPtr("https://img.test/t?Width=100")},
		{"primary", models.ScheduleItem{PrimaryImage: "https://img.test/p?Height=5&Width=1"}, models.StringPtr("https://img.test/p?Width=100")},
		{"none", models.ScheduleItem{}, nil},
		{"description fallback", models.ScheduleItem{Description: "Lang"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := models.Channels{"DR1": liveRecord("1")}
			entries := []models.ScheduleEntry{{ChannelID: "1", Schedules: []models.ScheduleSlot{{Item: tt.item}}}}
			Merge(records, map[string]string{"1": "DR1"}, entries, nil)
			assert.Equal(t, tt.want, records["DR1"].Poster)
			assert.Equal(t, models.StringPtr(tt.item.Description), records["DR1"].Description)
		})
	}
}

func TestMerge_IgnoresUnknownAndEmpty(t *testing.T) {
	records := models.Channels{"DR2": liveRecord("20876")}
	names := map[string]string{"20876": "DR2", "555": "Gone"}
	entries := []models.ScheduleEntry{
		{ChannelID: "20876", Schedules: nil},
		{ChannelID: "20892", Schedules: []models.ScheduleSlot{{Item: models.ScheduleItem{Title: models.StringPtr("Ghost")}}}},
		{ChannelID: "555", Schedules: []models.ScheduleSlot{{Item: models.ScheduleItem{Title: models.StringPtr("Orphan")}}}},
	}

	out := Merge(records, names, entries, map[string]string{})
	require.Len(t, out, 1)
	assert.Equal(t, models.StringPtr(models.Pending), out["DR2"].Title)
	assert.Equal(t, models.StringPtr(models.Pending), out["DR2"].Description)
	assert.Nil(t, out["DR2"].Debug)
}

func TestMerge_KeepsLiveFields(t *testing.T) {
	before := liveRecord("20875")
	records := models.Channels{"DR1": liveRecord("20875")}
	entries := []models.ScheduleEntry{{ChannelID: "20875", Schedules: []models.ScheduleSlot{{Item: models.ScheduleItem{
		Title:  models.StringPtr("Nyheder"),
		Images: models.ItemImages{Logo: "https://img.test/other-logo"},
	}}}}}

	Merge(records, map[string]string{"20875": "DR1"}, entries, nil)
	rec := records["DR1"]
	assert.Equal(t, before.ID, rec.ID)
	assert.Equal(t, before.Logo, rec.Logo)
	assert.Equal(t, before.Streams, rec.Streams)
	assert.Equal(t, before.PrimaryStream, rec.PrimaryStream)
}

func TestMerge_AbsentTitleIsNull(t *testing.T) {
	records := models.Channels{
		"DR1": liveRecord("20875"),
		"DR2": liveRecord("20876"),
	}
	names := map[string]string{"20875": "DR1", "20876": "DR2"}
	empty := ""
	entries := []models.ScheduleEntry{
		{ChannelID: "20875", Schedules: []models.ScheduleSlot{{Item: models.ScheduleItem{}}}},
		{ChannelID: "20876", Schedules: []models.ScheduleSlot{{Item: models.ScheduleItem{Title: &empty}}}},
	}

	Merge(records, names, entries, nil)
	assert.Nil(t, records["DR1"].Title)
	assert.Nil(t, records["DR1"].Description)
	require.NotNil(t, records["DR2"].Title)
	assert.Equal(t, "", *records["DR2"].Title)

	data, err := json.Marshal(records["DR1"])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":null`)
	assert.Contains(t, string(data), `"description":null`)
}
