package engine

// Fixed protocol/physics constants (spec.md section 6). Not operator-configurable.
const (
	GameRadius        = 21600.0
	MaxSnakeParts     = 411
	SectorSize        = 480.0
	SectorCount       = 90
	ProtocolVersion   = 14
	FrameTimeMs       = 8
	DeathRadius       = 21120.0
	FoodSpawnRate     = 2
	HumanStartScore   = 5
	BotStartScore     = 5
	BoostCost         = 20.0
	BoostDropSize     = 10

	RotStepIntervalMs = 123
	AIStepIntervalMs  = 250
	LeaderboardMs     = 1000
	MinimapMs         = 2000
	PingTimeoutMs     = 30000

	BaseSpeed         = 172.0
	BoostSpeed        = 448.0
	SpeedAccel        = 1000.0
	AngularStep       = 4.125 * 0.001
	TailStepDistance  = 24.0
	TailK             = 0.43
	PartsSkipCount    = 3
	HeadCircleRadius  = 14.0

	FoodCellCapacity  = 100
	FoodRemoveTolSq   = 10.0 * 10.0
	ViewRadius        = 2000.0

	FullnessScale = 16777215.0 // glossary: fullness / 16777215 for wire encoding
)
