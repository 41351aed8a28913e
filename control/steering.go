package control

import (
	"math"

	"go.viam.com/lanefollow/components/servo"
)

// SteeringOutput breaks down one controller step.
type SteeringOutput struct {
	Proportional float64
	Derivative   float64
	// Target is neutral plus the PD output, clamped to the servo range.
	Target float64
	// Command is the damped, rounded command that is sent to the servo.
	Command int
}

// SteeringController is a proportional-derivative controller followed by first-order damping of
// the command. There is no integral term, so a long occlusion cannot wind it up.
type SteeringController struct {
	cfg SteeringConfig
}

// NewSteeringController returns a controller using conf.
func NewSteeringController(conf SteeringConfig) *SteeringController {
	return &SteeringController{cfg: conf}
}

// Update computes the next command from err and advances PrevError and PrevServoCommand in st.
func (c *SteeringController) Update(err float64, st *LaneState) SteeringOutput {
	var out SteeringOutput
	out.Proportional = c.cfg.Kp * err
	out.Derivative = c.cfg.Kd * (err - st.PrevError)

	rng := c.cfg.Range
	out.Target = rng.ClampFloat(float64(rng.Neutral) + out.Proportional + out.Derivative)

	damped := c.cfg.Damping*float64(st.PrevServoCommand) + (1-c.cfg.Damping)*out.Target
	out.Command = rng.Clamp(int(math.Round(damped)))

	st.PrevServoCommand = out.Command
	st.PrevError = err
	return out
}

// Range returns the servo range commands are clamped to.
func (c *SteeringController) Range() servo.Range {
	return c.cfg.Range
}
