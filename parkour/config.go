package parkour

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/logging"
)

// Config is the tuning shared by every actor running the default graph. Speeds are in units per
// second, times in seconds, heights and distances in units.
type Config struct {
	WalkSpeed       float32 `mapstructure:"walk_speed"`
	SprintSpeed     float32 `mapstructure:"sprint_speed"`
	CrouchSpeed     float32 `mapstructure:"crouch_speed"`
	Acceleration    float32 `mapstructure:"acceleration"`
	AirAcceleration float32 `mapstructure:"air_acceleration"`
	TurnRate        float32 `mapstructure:"turn_rate"`
	Gravity         float32 `mapstructure:"gravity"`
	GroundStick     float32 `mapstructure:"ground_stick"`
	CrouchHeight    float32 `mapstructure:"crouch_height"`

	JumpSpeed    float32 `mapstructure:"jump_speed"`
	JumpGrace    float32 `mapstructure:"jump_grace"`
	WallJumpPush float32 `mapstructure:"wall_jump_push"`

	WallReach           float32 `mapstructure:"wall_reach"`
	WallRunMinSpeed     float32 `mapstructure:"wall_run_min_speed"`
	WallRunSpeed        float32 `mapstructure:"wall_run_speed"`
	WallRunTime         float32 `mapstructure:"wall_run_time"`
	WallRunGravityScale float32 `mapstructure:"wall_run_gravity_scale"`
	WallClimbSpeed      float32 `mapstructure:"wall_climb_speed"`
	WallClimbTime       float32 `mapstructure:"wall_climb_time"`

	LedgeReach     float32 `mapstructure:"ledge_reach"`
	LedgeGrabMin   float32 `mapstructure:"ledge_grab_min"`
	LedgeGrabMax   float32 `mapstructure:"ledge_grab_max"`
	HangDepth      float32 `mapstructure:"hang_depth"`
	LedgeMoveSpeed float32 `mapstructure:"ledge_move_speed"`
	ClamberTime    float32 `mapstructure:"clamber_time"`

	StepHeight    float32 `mapstructure:"step_height"`
	StepTime      float32 `mapstructure:"step_time"`
	VaultHeight   float32 `mapstructure:"vault_height"`
	VaultMinSpeed float32 `mapstructure:"vault_min_speed"`
	VaultTime     float32 `mapstructure:"vault_time"`
	VaultDistance float32 `mapstructure:"vault_distance"`
	VaultTuck     float32 `mapstructure:"vault_tuck"`
	CameraDip     float32 `mapstructure:"camera_dip"`

	KillHeight float32    `mapstructure:"kill_height"`
	Spawn      mgl32.Vec3 `mapstructure:"spawn"`
}

func DefaultConfig() Config {
	return Config{
		WalkSpeed:       4,
		SprintSpeed:     7,
		CrouchSpeed:     2,
		Acceleration:    30,
		AirAcceleration: 8,
		TurnRate:        720,
		Gravity:         20,
		GroundStick:     2,
		CrouchHeight:    0.5,

		JumpSpeed:    7,
		JumpGrace:    0.15,
		WallJumpPush: 5,

		WallReach:           0.4,
		WallRunMinSpeed:     3,
		WallRunSpeed:        7,
		WallRunTime:         1.2,
		WallRunGravityScale: 0.2,
		WallClimbSpeed:      4,
		WallClimbTime:       0.6,

		LedgeReach:     0.4,
		LedgeGrabMin:   1.2,
		LedgeGrabMax:   2.2,
		HangDepth:      0.3,
		LedgeMoveSpeed: 1.5,
		ClamberTime:    0.5,

		StepHeight:    0.45,
		StepTime:      0.15,
		VaultHeight:   1.1,
		VaultMinSpeed: 3,
		VaultTime:     0.45,
		VaultDistance: 1.2,
		VaultTuck:     0.4,
		CameraDip:     0.3,

		KillHeight: -50,
	}
}

// positive returns v, or 0 after logging when v is not positive. States call it on entry for
// the timers and distances they move by.
func positive(log logging.Logger, state, name string, v float32) float32 {
	if v > 0 {
		return v
	}
	log.Errorf("parkour: %s: %s is %f, continuing without it", state, name, v)
	return 0
}
