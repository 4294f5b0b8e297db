package serialcomm

// MaxCommandID bounds the 15-bit random command id space.
const MaxCommandID = 1 << 15

// ShutdownID is the id attached to the reserved "quit" command.
const ShutdownID = -1

// LegacyResponseID is the id a pipelined-mode response is stored under
// when the wire object omits the "id" field entirely: legacy firmware
// that never echoes ids. A caller expecting such a response must request
// it in order via Get(LegacyResponseID, ...).
const LegacyResponseID = -1

// CommandRecord is a single queued (id, payload) pair. payload is the
// textual command; it is terminated with a carriage return on the wire.
type CommandRecord struct {
	ID      int
	Payload string
}

// IsShutdown reports whether this record is the reserved quit sentinel.
func (c CommandRecord) IsShutdown() bool {
	return c.Payload == "quit"
}

// AccelBlock is the accelerometer sub-object nested in a "sensors" response.
type AccelBlock struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// UltrasonicBlock is the ultrasonic sub-object nested in a "sensors"
// response, one reading per mounted sensor (encoder-count units on the
// wire).
type UltrasonicBlock struct {
	Front float32 `json:"front"`
	Left  float32 `json:"left"`
	Right float32 `json:"right"`
	Back  float32 `json:"back"`
}

// Response is the structured object the firmware returns, one per line.
// Only ID is always populated; command-specific fields are zero-valued
// when absent.
type Response struct {
	ID         int              `json:"id"`
	Result     bool             `json:"result"`
	Distance   float32          `json:"distance,omitempty"`
	AbsHeading float32          `json:"absHeading,omitempty"`
	HeadingErr float32          `json:"headingErr,omitempty"`
	Data       float32          `json:"data,omitempty"`
	Heading    float32          `json:"heading,omitempty"`
	Accel      *AccelBlock      `json:"accel,omitempty"`
	Ultrasonic *UltrasonicBlock `json:"ultrasonic,omitempty"`

	// Empty is never serialized. The receive loops skip blank lines
	// (timeout/keepalive) instead of storing a Response for them, so no
	// Response they store has Empty set.
	Empty bool `json:"-"`
}

// Arm names one of the robot's two servo-driven manipulators: its drive
// servo channel and travel angles, and its gripper servo channel and
// travel angles.
type Arm struct {
	Name              string
	ArmID             int
	ArmUpAngle        int
	ArmDownAngle      int
	GripperID         int
	GripperOpenAngle  int
	GripperCloseAngle int
}

// LeftArm and RightArm are the two fixed manipulator presets carried over
// from the firmware's channel assignment.
var (
	LeftArm = Arm{
		Name: "left", ArmID: 0, ArmUpAngle: 680, ArmDownAngle: 310,
		GripperID: 1, GripperOpenAngle: 900, GripperCloseAngle: 450,
	}
	RightArm = Arm{
		Name: "right", ArmID: 2, ArmUpAngle: 330, ArmDownAngle: 710,
		GripperID: 3, GripperOpenAngle: 0, GripperCloseAngle: 350,
	}
)

// SensorIndex maps a scalar sensor's wire name to its numeric id, used by
// the single-value "sensor <id>" command.
var SensorIndex = map[string]int{
	"heading":          0,
	"accel.x":          1,
	"accel.y":          2,
	"accel.z":          3,
	"ultrasonic.left":  4,
	"ultrasonic.front": 5,
	"ultrasonic.right": 6,
	"ultrasonic.back":  7,
}

// EncoderCountsPerInch converts metric distances to the encoder-count unit
// the firmware expects on the wire.
const EncoderCountsPerInch = 165.0

// TenthsOfDegreePerRadian converts radians to the tenths-of-a-degree unit
// the firmware expects for angles.
const TenthsOfDegreePerRadian = 1800.0 / 3.14159265358979
