package currentcost

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxFrameReads = 50

func frameLine(sensor int, watts int) string {
	return fmt.Sprintf("<msg><src>CC128-v0.11</src><dsb>00089</dsb><time>13:02:39</time>"+
		"<tmpr>18.7</tmpr><sensor>%d</sensor><id>01234</id>"+
		"<type>1</type><ch1><watts>%05d</watts></ch1></msg>", sensor, watts)
}

func TestReadCycleStopsOnDuplicateSensor(t *testing.T) {
	require := require.New(t)

	stream := strings.NewReader(strings.Join([]string{
		frameLine(0, 345),
		frameLine(1, 60),
		frameLine(2, 1500),
		frameLine(0, 350),
		frameLine(1, 61),
	}, "\n"))

	readings, err := ReadCycle(stream, maxFrameReads)
	require.NoError(err)
	require.Len(readings, 3)

	assert.Equal(t, 0, readings[0].SensorID)
	assert.Equal(t, 1, readings[1].SensorID)
	assert.Equal(t, 2, readings[2].SensorID)
	// first occurrence of sensor 0 is kept
	assert.Equal(t, 345.0, readings[0].Channels[0].Value)
}

func TestReadCycleSkipsUnrecognizableLines(t *testing.T) {
	require := require.New(t)

	stream := strings.NewReader(strings.Join([]string{
		"garbage",
		"<msg><src>CC128-v0.11</src></msg>",
		frameLine(0, 345),
		"<msg><sensor>3</sensor><ch1><watts>not-a-number</watts></ch1></msg>",
		frameLine(0, 350),
	}, "\n"))

	readings, err := ReadCycle(stream, maxFrameReads)
	require.NoError(err)
	require.Len(readings, 1)
	assert.Equal(t, 345.0, readings[0].Channels[0].Value)
}

func TestReadCycleEmptyStreamIsDeviceError(t *testing.T) {
	_, err := ReadCycle(strings.NewReader(""), maxFrameReads)
	require.Error(t, err)
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
}

func TestReadCycleBoundedByMaxFrameReads(t *testing.T) {
	require := require.New(t)

	// no sensor ever repeats, the bound has to stop the loop
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, frameLine(i, 100+i))
	}
	readings, err := ReadCycle(strings.NewReader(strings.Join(lines, "\n")), 10)
	require.NoError(err)
	require.Len(readings, 10)
}

func TestParseFrameChannelsAndTemperature(t *testing.T) {
	require := require.New(t)

	line := "<msg><src>CC128-v0.11</src><time>01:02:03</time><tmpr>21.4</tmpr>" +
		"<sensor>2</sensor><ch1><watts>00100</watts></ch1><ch2><watts>00200</watts></ch2>" +
		"<ch3><watts>00300</watts></ch3></msg>"
	reading, ok := parseFrame(line)
	require.True(ok)

	assert.Equal(t, 2, reading.SensorID)
	require.NotNil(reading.Temperature)
	assert.InDelta(t, 21.4, *reading.Temperature, 1e-9)
	require.Len(reading.Channels, 3)
	assert.Equal(t, ChannelReading{ChannelID: 2, Unit: "watts", Value: 200}, reading.Channels[1])
}

func TestParseFrameMissingSensorDefaultsToWholeHouse(t *testing.T) {
	line := "<msg><src>CC02</src><ch1><watts>00430</watts></ch1></msg>"
	reading, ok := parseFrame(line)
	require.True(t, ok)
	assert.Equal(t, WholeHouseSensorID, reading.SensorID)
	assert.Nil(t, reading.Temperature)
}
