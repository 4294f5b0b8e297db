package serialcomm

import (
	"fmt"
	"math/rand"
	"time"
)

// Command is the SerialCommand facade: one per caller, sharing the
// underlying Mux's command queue and response map. Multiple Commands
// backed by the same Mux are safe for concurrent use.
type Command struct {
	mux        *Mux
	servoDelay time.Duration
	rng        *rand.Rand
}

// NewCommand builds a facade bound to mux.
func NewCommand(mux *Mux) *Command {
	return &Command{
		mux:        mux,
		servoDelay: mux.cfg.ServoDelay,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Put enqueues payload with a fresh random id and returns the id.
func (c *Command) Put(payload string) int {
	id := c.rng.Intn(MaxCommandID)
	c.mux.commands <- CommandRecord{ID: id, Payload: payload}
	return id
}

// Get retrieves the response for id, blocking or not per block.
func (c *Command) Get(id int, block bool) (Response, bool) {
	return c.mux.resp.Get(id, block)
}

// Run puts payload then blocks for its response.
func (c *Command) Run(payload string) Response {
	id := c.Put(payload)
	resp, _ := c.Get(id, true)
	return resp
}

// Quit enqueues the shutdown sentinel.
func (c *Command) Quit() {
	c.mux.commands <- CommandRecord{ID: ShutdownID, Payload: "quit"}
}

// Stop commands an immediate stop.
func (c *Command) Stop() bool {
	return c.Run("stop").Result
}

// PWMDrive sets individual wheel/side speeds directly (PWM units).
func (c *Command) PWMDrive(left, right int) bool {
	return c.Run(fmt.Sprintf("pwm_drive %d %d", left, right)).Result
}

// Set commands a simultaneous move-and-turn-to-absolute-heading. distance
// is in encoder counts, angle in tenths of a degree, speed in firmware PID
// units (200-1000). Returns the firmware's actual distance and absolute
// heading, falling back to the commanded values if absent.
func (c *Command) Set(distance, angle, speed int) (actualDistance, absHeading int) {
	resp := c.Run(fmt.Sprintf("set %d %d %d", angle, speed, distance))
	actualDistance = fallbackInt(resp.Distance, distance)
	absHeading = fallbackInt(resp.AbsHeading, angle)
	return
}

// Move commands a straight move of distance encoder counts at speed.
func (c *Command) Move(distance, speed int) int {
	resp := c.Run(fmt.Sprintf("move %d %d", speed, distance))
	return fallbackInt(resp.Distance, distance)
}

// Follow commands a waypoint-graph-edge follow of distance encoder counts
// at speed, along edge `which` (0 = straight, 1 = left, 2 = right).
func (c *Command) Follow(distance, speed, which int) int {
	resp := c.Run(fmt.Sprintf("follow %d %d %d", speed, distance, which))
	return fallbackInt(resp.Distance, distance)
}

// TurnAbs commands a turn to absolute heading angle (tenths of a degree).
func (c *Command) TurnAbs(angle int) int {
	resp := c.Run(fmt.Sprintf("turn_abs %d", angle))
	return fallbackInt(resp.AbsHeading, angle)
}

// TurnRel commands a relative turn of angle (tenths of a degree) and
// returns the actual turn achieved (commanded minus the firmware's
// reported remaining error).
func (c *Command) TurnRel(angle int) int {
	resp := c.Run(fmt.Sprintf("turn_rel %d", angle))
	return angle - int(resp.HeadingErr)
}

// Servo ramps servo channel ch to ang over ramp steps, then sleeps for the
// configured servo-settle delay before returning (the firmware itself
// returns immediately).
func (c *Command) Servo(channel, ramp, angle int) bool {
	resp := c.Run(fmt.Sprintf("servo %d %d %d", channel, ramp, angle))
	time.Sleep(c.servoDelay)
	return resp.Result
}

const (
	defaultArmRamp     = 10
	defaultGripperRamp = 5
)

// ArmUp raises arm's manipulator to its up angle.
func (c *Command) ArmUp(arm Arm) bool {
	return c.Servo(arm.ArmID, defaultArmRamp, arm.ArmUpAngle)
}

// ArmDown lowers arm's manipulator to its down angle.
func (c *Command) ArmDown(arm Arm) bool {
	return c.Servo(arm.ArmID, defaultArmRamp, arm.ArmDownAngle)
}

// GripperOpen opens arm's gripper.
func (c *Command) GripperOpen(arm Arm) bool {
	return c.Servo(arm.GripperID, defaultGripperRamp, arm.GripperOpenAngle)
}

// GripperClose closes arm's gripper.
func (c *Command) GripperClose(arm Arm) bool {
	return c.Servo(arm.GripperID, defaultGripperRamp, arm.GripperCloseAngle)
}

// ArmPick runs arm's canned pick sequence on the firmware.
func (c *Command) ArmPick(arm Arm) bool {
	return c.Run(arm.Name + "_pick").Result
}

// ArmDrop runs arm's canned drop sequence on the firmware.
func (c *Command) ArmDrop(arm Arm) bool {
	return c.Run(arm.Name + "_drop").Result
}

// AllSensorData returns the full "sensors" response object.
func (c *Command) AllSensorData() Response {
	return c.Run("sensors")
}

// SensorData fetches the current scalar value of sensorID.
func (c *Command) SensorData(sensorID int) int {
	resp := c.Run(fmt.Sprintf("sensor %d", sensorID))
	return int(resp.Data)
}

// SensorDataByName resolves sensorName via SensorIndex and fetches its
// scalar value; returns -1 if the name is unknown.
func (c *Command) SensorDataByName(sensorName string) int {
	id, ok := SensorIndex[sensorName]
	if !ok {
		return -1
	}
	return c.SensorData(id)
}

// CompassReset zeros the compass heading reference.
func (c *Command) CompassReset() bool {
	return c.Run("compass_reset").Result
}

func fallbackInt(v float32, fallback int) int {
	if v == 0 {
		return fallback
	}
	return int(v)
}
