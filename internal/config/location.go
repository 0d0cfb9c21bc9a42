package config

import "time"

// Location returns the zone used to render message timestamps. An empty
// timezone means the process local zone.
func (p PortrayalConfig) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(p.Timezone)
}
