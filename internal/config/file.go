package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Provider struct {
		BaseURL        string   `yaml:"base_url"`
		ScheduleURL    string   `yaml:"schedule_url"`
		ChannelIDs     []string `yaml:"channel_ids"`
		UserAgent      string   `yaml:"user_agent"`
		Accept         string   `yaml:"accept"`
		AcceptLanguage string   `yaml:"accept_language"`
		Timeout        string   `yaml:"timeout"`
		RateLimit      *float64 `yaml:"rate_limit"`
		Timezone       string   `yaml:"timezone"`
	} `yaml:"provider"`
	Schedule    ScheduleFlags `yaml:"schedule"`
	Publish     Publish       `yaml:"publish"`
	Cron        string        `yaml:"cron"`
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	ServerPort  string        `yaml:"server_port"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
}

// LoadFromFile loads config from a YAML file. Keys left out keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config bytes on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c := Default()
	p := &c.Provider
	override(&p.BaseURL, f.Provider.BaseURL)
	override(&p.ScheduleURL, f.Provider.ScheduleURL)
	override(&p.UserAgent, f.Provider.UserAgent)
	override(&p.Accept, f.Provider.Accept)
	override(&p.AcceptLanguage, f.Provider.AcceptLanguage)
	if len(f.Provider.ChannelIDs) > 0 {
		p.ChannelIDs = f.Provider.ChannelIDs
	}
	if f.Provider.Timeout != "" {
		if d, err := time.ParseDuration(f.Provider.Timeout); err == nil {
			p.Timeout = d
		}
	}
	if f.Provider.RateLimit != nil {
		p.RateLimit = *f.Provider.RateLimit
	}
	if f.Provider.Timezone != "" {
		p.Location = loadLocation(f.Provider.Timezone)
	}

	s := &c.Schedule
	override(&s.Duration, f.Schedule.Duration)
	override(&s.Intersect, f.Schedule.Intersect)
	override(&s.Device, f.Schedule.Device)
	override(&s.Lang, f.Schedule.Lang)
	override(&s.FF, f.Schedule.FF)
	override(&s.Segments, f.Schedule.Segments)
	override(&s.Sub, f.Schedule.Sub)

	override(&c.Publish.EntityID, f.Publish.EntityID)
	override(&c.Publish.FriendlyName, f.Publish.FriendlyName)
	override(&c.Publish.Icon, f.Publish.Icon)

	override(&c.Cron, f.Cron)
	override(&c.DatabaseURL, f.DatabaseURL)
	override(&c.RedisURL, f.RedisURL)
	override(&c.ServerPort, f.ServerPort)
	override(&c.LogLevel, f.LogLevel)
	override(&c.LogFormat, f.LogFormat)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
