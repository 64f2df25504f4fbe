package identity

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"quotad/internal/models"
)

const (
	fingerprintLen  = 8
	canvasTailChars = 50
)

// Fingerprint buckets a device into a short base-36 token. It is not a
// security boundary: collisions only merge two devices' quotas.
func Fingerprint(ds *models.DeviceSignals) string {
	if ds == nil {
		ds = &models.DeviceSignals{}
	}
	tz := ""
	if ds.TimezoneOffset != nil {
		tz = strconv.Itoa(*ds.TimezoneOffset)
	}
	canvas := ds.CanvasSignature
	if len(canvas) > canvasTailChars {
		canvas = canvas[len(canvas)-canvasTailChars:]
	}

	raw := strings.Join([]string{
		ds.UserAgent,
		ds.Language,
		strconv.Itoa(ds.ScreenWidth) + "x" + strconv.Itoa(ds.ScreenHeight),
		strconv.Itoa(ds.ColorDepth),
		tz,
		ds.Platform,
		strconv.FormatBool(ds.CookieEnabled),
		canvas,
	}, "|")

	token := strconv.FormatUint(xxhash.Sum64String(raw), 36)
	if len(token) > fingerprintLen {
		token = token[:fingerprintLen]
	}
	return token
}
