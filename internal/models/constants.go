package models

// Pending is the placeholder title/description until schedule data is merged.
const Pending = "Loading..."

// Defaults for the published state entity.
const (
	DefaultEntityID     = "sensor.drtv_master_data"
	DefaultFriendlyName = "DRTV Master Data"
	DefaultIcon         = "mdi:television-classic"
)
