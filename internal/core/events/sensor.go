package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	. "currentcost2mqtt/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE       = "bridge"
	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_MONETARY        = "monetary"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_TEMPERATURE     = "temperature"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
)

// Sensor ids are derived from the monitor's sensor and channel
// numbering, e.g. sensor0_ch1_power, sensor0_ch1_energy_daily_night.

func PowerSensorId(sensorID, channelID int) string {
	return fmt.Sprintf("sensor%d_ch%d_power", sensorID, channelID)
}

func EnergySensorId(sensorID, channelID int, period Period, band Band) string {
	id := fmt.Sprintf("sensor%d_ch%d_energy_%s", sensorID, channelID, period)
	if band == BandNight {
		id += "_night"
	}
	return id
}

func CostSensorId(sensorID, channelID int) string {
	return fmt.Sprintf("sensor%d_ch%d_monthly_cost", sensorID, channelID)
}

func TemperatureSensorId(sensorID int) string {
	return fmt.Sprintf("sensor%d_temperature", sensorID)
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("currentcost_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "currentcost2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("CurrentCost bridge %s", md5HashShort(baseTopic)),
	}
}

func MonitorDevice(baseTopic, source string) Device {
	return Device{
		Id:           fmt.Sprintf("cc_monitor_%s", md5HashShort(baseTopic)),
		Manufacturer: "Current Cost",
		Model:        "Envi CC128",
		Version:      source,
		Name:         fmt.Sprintf("CurrentCost monitor %s", md5HashShort(baseTopic)),
	}
}

// MonitorSensors builds the discoverable entity set for every sensor
// and channel present in a snapshot.
func MonitorSensors(monitorDevice Device, snapshot Snapshot, nightRateEnabled bool, currency string) []GenericSensor {

	var sensors []GenericSensor

	for sensorID, record := range snapshot.Sensors {
		for _, channel := range record.Reading.Channels {
			sensors = append(sensors, powerSensor(monitorDevice, sensorID, channel.ChannelID))
			for _, period := range Periods {
				sensors = append(sensors, energySensor(monitorDevice, sensorID, channel.ChannelID, period, BandDay))
				if nightRateEnabled {
					sensors = append(sensors, energySensor(monitorDevice, sensorID, channel.ChannelID, period, BandNight))
				}
			}
			sensors = append(sensors, costSensor(monitorDevice, sensorID, channel.ChannelID, currency))
		}
		if record.Reading.Temperature != nil {
			sensors = append(sensors, temperatureSensor(monitorDevice, sensorID))
		}
	}

	return sensors
}

func powerSensor(device Device, sensorID, channelID int) GenericSensor {
	id := PowerSensorId(sensorID, channelID)
	return GenericSensor{
		Device:            device,
		Id:                id,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("Sensor %d channel %d power", sensorID, channelID),
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "W",
		UniqueId:          uniqueId(device.Id, id),
	}
}

func energySensor(device Device, sensorID, channelID int, period Period, band Band) GenericSensor {
	id := EnergySensorId(sensorID, channelID, period, band)
	name := fmt.Sprintf("Sensor %d channel %d %s energy", sensorID, channelID, period)
	if band == BandNight {
		name += " (night)"
	}
	return GenericSensor{
		Device:            device,
		Id:                id,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              name,
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "Wh",
		UniqueId:          uniqueId(device.Id, id),
	}
}

func costSensor(device Device, sensorID, channelID int, currency string) GenericSensor {
	id := CostSensorId(sensorID, channelID)
	return GenericSensor{
		Device:            device,
		Id:                id,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("Sensor %d channel %d monthly cost", sensorID, channelID),
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_MONETARY,
		UnitOfMeasurement: currency,
		UniqueId:          uniqueId(device.Id, id),
	}
}

func temperatureSensor(device Device, sensorID int) GenericSensor {
	id := TemperatureSensorId(sensorID)
	return GenericSensor{
		Device:            device,
		Id:                id,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("Sensor %d temperature", sensorID),
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_TEMPERATURE,
		UnitOfMeasurement: "°C",
		UniqueId:          uniqueId(device.Id, id),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	return md5Hash(text)[0:8]
}
