package weather

import "time"

// Glyphs used for weather codes.
const (
	GlyphUnknown      = "🌍"
	GlyphSun          = "☀️"
	GlyphMoon         = "🌙"
	GlyphSunSmallCld  = "🌤️"
	GlyphSunCloud     = "⛅"
	GlyphCloud        = "☁️"
	GlyphFog          = "🌫️"
	GlyphSunRain      = "🌦️"
	GlyphRain         = "🌧️"
	GlyphSnowCloud    = "🌨️"
	GlyphSnowflake    = "❄️"
	GlyphThunderstorm = "⛈️"
)

const descUnknown = "Unknown"

type codeInfo struct {
	desc       string
	day, night string
}

// Open-Meteo WMO weather codes. Only 0-2 have a distinct night glyph.
var codeTable = map[int]codeInfo{
	0:  {"Clear sky", GlyphSun, GlyphMoon},
	1:  {"Mainly clear", GlyphSunSmallCld, GlyphMoon},
	2:  {"Partly cloudy", GlyphSunCloud, GlyphCloud},
	3:  {"Overcast", GlyphCloud, GlyphCloud},
	45: {"Fog", GlyphFog, GlyphFog},
	48: {"Rime fog", GlyphFog, GlyphFog},
	51: {"Light drizzle", GlyphSunRain, GlyphSunRain},
	53: {"Drizzle", GlyphRain, GlyphRain},
	55: {"Heavy drizzle", GlyphRain, GlyphRain},
	61: {"Light rain", GlyphSunRain, GlyphSunRain},
	63: {"Rain", GlyphRain, GlyphRain},
	65: {"Heavy rain", GlyphRain, GlyphRain},
	71: {"Light snow", GlyphSnowCloud, GlyphSnowCloud},
	73: {"Snow", GlyphSnowflake, GlyphSnowflake},
	75: {"Heavy snow", GlyphSnowflake, GlyphSnowflake},
	95: {"Thunderstorm", GlyphThunderstorm, GlyphThunderstorm},
}

// DescribeCode maps a weather code to its description and glyph. A nil or
// unlisted code yields ("Unknown", GlyphUnknown).
func DescribeCode(code *int, night bool) (desc, glyph string) {
	if code == nil {
		return descUnknown, GlyphUnknown
	}
	info, ok := codeTable[*code]
	if !ok {
		return descUnknown, GlyphUnknown
	}
	if night {
		return info.desc, info.night
	}
	return info.desc, info.day
}

// IsNightHour reports whether a local hour falls in [18, 24) or [0, 6).
func IsNightHour(hour int) bool {
	return hour < 6 || hour >= 18
}

// LocalHour returns the hour of day at the given UTC offset.
func LocalHour(now time.Time, utcOffsetSeconds int) int {
	return now.UTC().Add(time.Duration(utcOffsetSeconds) * time.Second).Hour()
}
