package models

import "time"

// DeviceSignals are the low-entropy browser characteristics reported by the
// front end. TimezoneOffset follows Date.getTimezoneOffset: minutes to add to
// local time to get UTC, so UTC+2 is -120.
type DeviceSignals struct {
	UserAgent       string `json:"userAgent"`
	Language        string `json:"language"`
	ScreenWidth     int    `json:"screenWidth"`
	ScreenHeight    int    `json:"screenHeight"`
	ColorDepth      int    `json:"colorDepth"`
	TimezoneOffset  *int   `json:"timezoneOffset,omitempty"`
	Platform        string `json:"platform"`
	CookieEnabled   bool   `json:"cookieEnabled"`
	CanvasSignature string `json:"canvas,omitempty"`
}

// Location returns the device's fixed zone, or fallback when the device did
// not report an offset.
func (ds *DeviceSignals) Location(fallback *time.Location) *time.Location {
	if ds == nil || ds.TimezoneOffset == nil {
		return fallback
	}
	return time.FixedZone("", -*ds.TimezoneOffset*60)
}
