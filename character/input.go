package character

// Input is the per-tick control surface. Device polling and mapping live outside the
// controller; states only read named axes and actions.
type Input interface {
	// Axis returns a value in [-1, 1].
	Axis(name string) float32
	Held(name string) bool
	// Pressed reports an action that became held this tick.
	Pressed(name string) bool
}

// Names the default parkour graph reads.
const (
	AxisMoveX = "move_x"
	AxisMoveY = "move_y"

	ActionJump   = "jump"
	ActionCrouch = "crouch"
	ActionSprint = "sprint"
)

// NoInput is an Input with nothing held.
type NoInput struct{}

func (NoInput) Axis(string) float32 { return 0 }
func (NoInput) Held(string) bool    { return false }
func (NoInput) Pressed(string) bool { return false }
