package engine

// Version can be set before starting the server.
var Version = "1.0.0"

// Config carries the handful of knobs an operator can tune. The remaining
// constants from spec.md section 6 (game_radius, sector_size, ...) are fixed
// wire-protocol/physics constants and are not configurable — they live in
// consts.go.
type Config struct {
	Port        int  `yaml:"port"`
	Bots        int  `yaml:"bots"`
	BotRespawn  bool `yaml:"botRespawn"`
	FrameTimeMs int  `yaml:"frameTimeMs"`
}

// DefaultConfig matches spec.md section 6's defaults.
func DefaultConfig() Config {
	return Config{
		Port:        8080,
		Bots:        0,
		BotRespawn:  true,
		FrameTimeMs: FrameTimeMs,
	}
}
