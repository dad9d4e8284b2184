package currentcost

import (
	"bufio"
	"errors"
	"io"
	"time"

	"github.com/goburrow/serial"
	"go.uber.org/zap"
)

type SerialCycleReader struct {
	device        string
	baudRate      int
	timeout       time.Duration
	maxFrameReads int
	port          serial.Port
	logger        *zap.Logger
}

// CreateSerialCycleReader builds a CycleReader over the monitor's serial
// feed. maxFrameReads bounds a single cycle so a device that drops a
// sensor from its round-robin cannot wedge the read loop.
func CreateSerialCycleReader(device string, baudRate int, timeout time.Duration,
	maxFrameReads int, logger *zap.Logger) (CycleReader, error) {
	if device == "" {
		return nil, &DeviceError{Op: "open", Err: errors.New("no serial device configured")}
	}
	if maxFrameReads <= 0 {
		return nil, &DeviceError{Op: "open", Err: errors.New("max frame reads must be > 0")}
	}
	return &SerialCycleReader{
		device:        device,
		baudRate:      baudRate,
		timeout:       timeout,
		maxFrameReads: maxFrameReads,
		logger:        logger.With(zap.String("device", device)),
	}, nil
}

func (reader *SerialCycleReader) Open() error {
	port, err := serial.Open(&serial.Config{
		Address:  reader.device,
		BaudRate: reader.baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  reader.timeout,
	})
	if err != nil {
		return &DeviceError{Op: "open", Err: err}
	}
	reader.port = port
	return nil
}

func (reader *SerialCycleReader) Close() error {
	if reader.port == nil {
		return nil
	}
	err := reader.port.Close()
	reader.port = nil
	return err
}

func (reader *SerialCycleReader) ReadCycle() ([]SensorReading, error) {
	if reader.port == nil {
		return nil, &DeviceError{Op: "read", Err: errors.New("device not open")}
	}
	readings, err := ReadCycle(reader.port, reader.maxFrameReads)
	if err != nil {
		return nil, err
	}
	reader.logger.Debug("read cycle complete", zap.Int("sensors", len(readings)))
	return readings, nil
}

// ReadCycle consumes the stream line by line until a sensor id repeats,
// which signals the monitor has completed one full round-robin over all
// its sensors. The reading for the first occurrence of each sensor is
// kept. Lines without a recognizable frame are skipped. The loop also
// stops after maxFrameReads parsed frames.
func ReadCycle(stream io.Reader, maxFrameReads int) ([]SensorReading, error) {
	scanner := bufio.NewScanner(stream)

	var readings []SensorReading
	seen := make(map[int]bool)
	frames := 0

	for scanner.Scan() {
		reading, ok := parseFrame(scanner.Text())
		if !ok {
			continue
		}
		if seen[reading.SensorID] {
			// cycle complete, the duplicate is discarded
			return readings, nil
		}
		seen[reading.SensorID] = true
		readings = append(readings, reading)
		frames++
		if frames >= maxFrameReads {
			return readings, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &DeviceError{Op: "read", Err: err}
	}
	if len(readings) == 0 {
		return nil, &DeviceError{Op: "read", Err: errors.New("stream ended before any parsable frame")}
	}
	return readings, nil
}

// ensure interface compliance
var _ CycleReader = (*SerialCycleReader)(nil)
