package models

// ChannelRecord is the merged live-channel and programme data for one channel,
// keyed by display name in Channels.
type ChannelRecord struct {
	ID            string            `json:"id"`
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	Logo          *string           `json:"logo"`
	Poster        *string           `json:"poster"`
	Streams       Streams           `json:"streams"`
	PrimaryStream *string           `json:"primary_stream"`
	StartTime     *string           `json:"start_time"`
	EndTime       *string           `json:"end_time"`
	Debug         map[string]string `json:"debug"`
}

// Streams holds the four stream URL variants a channel may expose. Any slot may be nil.
type Streams struct {
	HLSPrimary   *string `json:"hls_primary"`
	HLSAlt       *string `json:"hls_alt"`
	HLSSubtitles *string `json:"hls_subtitles"`
	DASHPrimary  *string `json:"dash_primary"`
}

// Channels maps channel display name to its record.
type Channels map[string]*ChannelRecord

// NewChannelRecord returns a record with programme fields set to Pending.
func NewChannelRecord(id string) *ChannelRecord {
	return &ChannelRecord{
		ID:          id,
		Title:       StringPtr(Pending),
		Description: StringPtr(Pending),
	}
}

// StringPtr returns nil for an empty string, else a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
