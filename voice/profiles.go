package voice

// Profile maps a symbolic voice tag to concrete edge-tts parameters
type Profile struct {
	Voice string
	Rate  string
	Pitch string
}

// DefaultProfiles covers the narration styles used across the catalog
var DefaultProfiles = map[string]Profile{
	"warm_grandfather": {Voice: "ru-RU-DmitryNeural", Rate: "+0%", Pitch: "-5Hz"},
	"mysterious_elder": {Voice: "ru-RU-SvetlanaNeural", Rate: "-10%", Pitch: "-10Hz"},
	"energetic_youth":  {Voice: "ru-RU-DariyaNeural", Rate: "+10%", Pitch: "+5Hz"},
	"solemn_narrator":  {Voice: "ru-RU-DmitryNeural", Rate: "-5%", Pitch: "-15Hz"},
	"ominous":          {Voice: "ru-RU-DmitryNeural", Rate: "-5%", Pitch: "-15Hz"},
	"cautionary":       {Voice: "ru-RU-SvetlanaNeural", Rate: "-5%", Pitch: "-5Hz"},
	"stern":            {Voice: "ru-RU-DmitryNeural", Rate: "+0%", Pitch: "-10Hz"},
	"warm_storyteller": {Voice: "ru-RU-SvetlanaNeural", Rate: "+0%", Pitch: "+0Hz"},
	"wise_elder":       {Voice: "ru-RU-DmitryNeural", Rate: "-10%", Pitch: "-10Hz"},
	"protective":       {Voice: "ru-RU-SvetlanaNeural", Rate: "-5%", Pitch: "+0Hz"},
}

const defaultProfile = "warm_grandfather"

// Resolve returns the profile for tag, falling back to the default voice for
// unknown tags rather than failing the run.
func Resolve(tag string) Profile {
	if p, ok := DefaultProfiles[tag]; ok {
		return p
	}
	return DefaultProfiles[defaultProfile]
}
