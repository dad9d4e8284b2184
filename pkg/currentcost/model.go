package currentcost

import "fmt"

// WholeHouseSensorID is reserved by the monitor for the aggregate
// whole-house clamp. Other ids are individual appliance sensors.
const WholeHouseSensorID = 0

type ChannelReading struct {
	// Channel number within the sensor (1-based on the wire)
	ChannelID int
	// Native unit as declared by the monitor (usually "watts")
	Unit string
	// Instantaneous value in the native unit
	Value float64
}

type SensorReading struct {
	SensorID int
	// Source is the monitor's firmware string, e.g. "CC128-v0.11"
	Source string
	// Ambient temperature as reported by the display unit, if present
	Temperature *float64
	// Channels in wire order. Channel ids are unique within a sensor.
	Channels []ChannelReading
}

// CycleReader reads one full round-robin cycle of sensor readings
// from the monitor.
type CycleReader interface {
	Open() error
	Close() error
	// ReadCycle blocks until the monitor has reported every sensor once.
	// It returns one reading per sensor, keeping the first occurrence.
	ReadCycle() ([]SensorReading, error)
}

// DeviceError covers an unreachable device, a stream that ended before
// any parsable frame, and transport failures mid-cycle.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("currentcost: %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("currentcost: %s", e.Op)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
