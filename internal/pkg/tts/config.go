package tts

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

//Default voice parameters applied to empty fields
const (
	DefaultLanguage = "en-GB"
	DefaultVoice    = "en-GB-LibbyNeural"
	DefaultRate     = "+0%"
	DefaultPitch    = "+0st"
	DefaultStyle    = ""
	DefaultFormat   = "mp3-16k"
)

//Config keeps synthesis parameters. Format is a short name like mp3-16k or wav-16k
type Config struct {
	Language string `json:"language"`
	Voice    string `json:"voice"`
	Rate     string `json:"rate"`
	Pitch    string `json:"pitch"`
	Style    string `json:"style"`
	Format   string `json:"format"`
}

//WithDefaults returns a copy with empty fields set to defaults
func (c Config) WithDefaults() Config {
	c.Language = or(c.Language, DefaultLanguage)
	c.Voice = or(c.Voice, DefaultVoice)
	c.Rate = or(c.Rate, DefaultRate)
	c.Pitch = or(c.Pitch, DefaultPitch)
	c.Format = or(c.Format, DefaultFormat)
	return c
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

//NormalizeText trims, collapses inner whitespace and lowercases
func NormalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

//Fingerprint is sha1 of normalized text and all voice parameters joined by '|'
func Fingerprint(text string, c Config) string {
	s := strings.Join([]string{NormalizeText(text), c.Language, c.Voice, c.Rate, c.Pitch, c.Style, c.Format}, "|")
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

//Extension returns file extension for the format
func Extension(format string) string {
	if strings.HasPrefix(format, "wav") {
		return "wav"
	}
	return "mp3"
}

//ContentType returns audio content type for the format
func ContentType(format string) string {
	if strings.HasPrefix(format, "wav") {
		return "audio/wav"
	}
	return "audio/mpeg"
}

//Key returns the cache storage key tts/<language>/<voice>/<format>/<fingerprint>.<ext>
func Key(text string, c Config) string {
	return "tts/" + c.Language + "/" + c.Voice + "/" + c.Format + "/" + Fingerprint(text, c) + "." + Extension(c.Format)
}
