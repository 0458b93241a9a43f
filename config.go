package kcc

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/viper"

	"github.com/gekko3d/kcc/capsule"
	"github.com/gekko3d/kcc/character"
	"github.com/gekko3d/kcc/movement"
	"github.com/gekko3d/kcc/parkour"
	"github.com/gekko3d/kcc/world"
)

type LogSettings struct {
	Prefix string `mapstructure:"prefix"`
	Debug  bool   `mapstructure:"debug"`
}

// ActorSettings is the capsule and motion every spawned character starts with.
type ActorSettings struct {
	Radius          float32    `mapstructure:"radius"`
	LowerHeight     float32    `mapstructure:"lower_height"`
	UpperHeight     float32    `mapstructure:"upper_height"`
	CollisionOffset float32    `mapstructure:"collision_offset"`
	SlopeAngle      float32    `mapstructure:"slope_angle"`
	Gravity         mgl32.Vec3 `mapstructure:"gravity"`
	MaxHorizontal   float32    `mapstructure:"max_horizontal"`
	MaxVertical     float32    `mapstructure:"max_vertical"`
	// Notify is "batched" or "immediate".
	Notify string `mapstructure:"notify"`
}

type TimeSettings struct {
	FixedStep time.Duration `mapstructure:"fixed_step"`
}

type WorldSettings struct {
	CellSize float32 `mapstructure:"cell_size"`
}

type SentrySettings struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

type CameraSettings struct {
	Sensitivity float32 `mapstructure:"sensitivity"`
	Height      float32 `mapstructure:"height"`
	Distance    float32 `mapstructure:"distance"`
	Ease        float32 `mapstructure:"ease"`
}

type Settings struct {
	Log     LogSettings     `mapstructure:"log"`
	Actor   ActorSettings   `mapstructure:"actor"`
	Parkour parkour.Config  `mapstructure:"parkour"`
	Time    TimeSettings    `mapstructure:"time"`
	World   WorldSettings   `mapstructure:"world"`
	Camera  CameraSettings  `mapstructure:"camera"`
	Sentry  SentrySettings  `mapstructure:"sentry"`
	Metrics MetricsSettings `mapstructure:"metrics"`
}

func DefaultSettings() Settings {
	actor := character.DefaultConfig()
	return Settings{
		Log: LogSettings{Prefix: "kcc"},
		Actor: ActorSettings{
			Radius:          actor.Shape.Radius,
			LowerHeight:     actor.Shape.LowerHeight,
			UpperHeight:     actor.Shape.UpperHeight,
			CollisionOffset: actor.Shape.CollisionOffset,
			SlopeAngle:      actor.Shape.SlopeAngle,
			Gravity:         actor.Gravity,
			MaxHorizontal:   actor.MaxHoz,
			MaxVertical:     actor.MaxVert,
			Notify:          actor.Notify.String(),
		},
		Parkour: parkour.DefaultConfig(),
		Time:    TimeSettings{FixedStep: time.Second / 60},
		World:   WorldSettings{CellSize: defaultCellSize},
		Camera: CameraSettings{
			Sensitivity: 0.1,
			Height:      1.6,
			Distance:    3,
			Ease:        8,
		},
		Sentry:  SentrySettings{Environment: "development"},
		Metrics: MetricsSettings{Enabled: true},
	}
}

func setDefaults(v *viper.Viper, s Settings) {
	v.SetDefault("log.prefix", s.Log.Prefix)
	v.SetDefault("log.debug", s.Log.Debug)

	v.SetDefault("actor.radius", s.Actor.Radius)
	v.SetDefault("actor.lower_height", s.Actor.LowerHeight)
	v.SetDefault("actor.upper_height", s.Actor.UpperHeight)
	v.SetDefault("actor.collision_offset", s.Actor.CollisionOffset)
	v.SetDefault("actor.slope_angle", s.Actor.SlopeAngle)
	v.SetDefault("actor.gravity", s.Actor.Gravity[:])
	v.SetDefault("actor.max_horizontal", s.Actor.MaxHorizontal)
	v.SetDefault("actor.max_vertical", s.Actor.MaxVertical)
	v.SetDefault("actor.notify", s.Actor.Notify)

	v.SetDefault("time.fixed_step", s.Time.FixedStep)
	v.SetDefault("world.cell_size", s.World.CellSize)

	v.SetDefault("camera.sensitivity", s.Camera.Sensitivity)
	v.SetDefault("camera.height", s.Camera.Height)
	v.SetDefault("camera.distance", s.Camera.Distance)
	v.SetDefault("camera.ease", s.Camera.Ease)

	v.SetDefault("sentry.dsn", s.Sentry.DSN)
	v.SetDefault("sentry.environment", s.Sentry.Environment)
	v.SetDefault("metrics.enabled", s.Metrics.Enabled)
}

// LoadSettings reads path (json, toml or yaml by extension) over the defaults. An empty
// path uses the defaults alone. KCC_-prefixed environment variables override both, e.g.
// KCC_SENTRY_DSN or KCC_TIME_FIXED_STEP.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	v := viper.New()
	setDefaults(v, s)
	v.SetEnvPrefix("KCC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return s, fmt.Errorf("error reading config file: %v", err)
		}
	}

	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("error decoding config: %w", err)
	}
	if err := s.validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (s Settings) validate() error {
	if _, err := parseNotify(s.Actor.Notify); err != nil {
		return err
	}
	if s.Actor.Radius <= 0 {
		return fmt.Errorf("config: actor.radius must be positive, got %f", s.Actor.Radius)
	}
	if s.Time.FixedStep < 0 {
		return fmt.Errorf("config: time.fixed_step must not be negative, got %s", s.Time.FixedStep)
	}
	if s.World.CellSize <= 0 {
		return fmt.Errorf("config: world.cell_size must be positive, got %f", s.World.CellSize)
	}
	return nil
}

func parseNotify(mode string) (movement.NotifyMode, error) {
	switch strings.ToLower(mode) {
	case "", "batched":
		return movement.NotifyBatched, nil
	case "immediate":
		return movement.NotifyImmediate, nil
	}
	return 0, fmt.Errorf("config: unknown notify mode %q", mode)
}

// Character converts the actor section into a character config.
func (a ActorSettings) Character() (character.Config, error) {
	notify, err := parseNotify(a.Notify)
	if err != nil {
		return character.Config{}, err
	}
	def := character.DefaultConfig()
	return character.Config{
		Shape: capsule.Config{
			Radius:          a.Radius,
			LowerHeight:     a.LowerHeight,
			UpperHeight:     a.UpperHeight,
			CollisionOffset: a.CollisionOffset,
			SlopeAngle:      a.SlopeAngle,
		},
		Gravity: a.Gravity,
		MaxHoz:  a.MaxHorizontal,
		MaxVert: a.MaxVertical,
		Mask:    def.Mask,
		Notify:  notify,
	}, nil
}

// Modules lists the modules for these settings in install order.
func (s Settings) Modules(colliders []*world.Collider, sources ...InputSource) ([]Module, error) {
	actor, err := s.Actor.Character()
	if err != nil {
		return nil, err
	}
	modules := []Module{
		LoggingModule{Prefix: s.Log.Prefix, Debug: s.Log.Debug},
		ReportingModule{DSN: s.Sentry.DSN, Environment: s.Sentry.Environment},
	}
	if s.Metrics.Enabled {
		modules = append(modules, MetricsModule{})
	}
	modules = append(modules,
		TimeModule{FixedStep: s.Time.FixedStep},
		InputModule{Sources: sources},
		WorldModule{CellSize: s.World.CellSize, Colliders: colliders},
		CharacterModule{Actor: actor, Parkour: s.Parkour},
		CameraModule{
			Sensitivity: s.Camera.Sensitivity,
			Height:      s.Camera.Height,
			Distance:    s.Camera.Distance,
			Ease:        s.Camera.Ease,
		},
	)
	return modules, nil
}
