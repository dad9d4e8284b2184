package currentcost

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
)

// Wire format: the monitor emits one XML envelope per line, e.g.
// <msg><src>CC128-v0.11</src><time>13:02:39</time><tmpr>18.7</tmpr>
// <sensor>1</sensor><ch1><watts>00345</watts></ch1></msg>
// Older units omit the <sensor> element, which implies the whole-house
// sensor.

type xmlFrame struct {
	XMLName     xml.Name     `xml:"msg"`
	Src         string       `xml:"src"`
	DaysSince   string       `xml:"dsb"`
	Time        string       `xml:"time"`
	SensorID    *int         `xml:"sensor"`
	Temperature *float64     `xml:"tmpr"`
	Rest        []xmlElement `xml:",any"`
}

type xmlElement struct {
	XMLName xml.Name
	Values  []xmlValue `xml:",any"`
}

type xmlValue struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

var channelNameRegexp = regexp.MustCompile(`^ch([0-9]+)$`)

// parseFrame extracts at most one complete frame from a line. Lines
// without a recognizable frame yield ok == false and are ignored by the
// caller.
func parseFrame(line string) (SensorReading, bool) {
	start := strings.Index(line, "<msg>")
	end := strings.LastIndex(line, "</msg>")
	if start < 0 || end < 0 || end <= start {
		return SensorReading{}, false
	}

	var frame xmlFrame
	if err := xml.Unmarshal([]byte(line[start:end+len("</msg>")]), &frame); err != nil {
		return SensorReading{}, false
	}

	reading := SensorReading{
		SensorID:    WholeHouseSensorID,
		Source:      frame.Src,
		Temperature: frame.Temperature,
	}
	if frame.SensorID != nil {
		reading.SensorID = *frame.SensorID
	}

	for _, el := range frame.Rest {
		matches := channelNameRegexp.FindStringSubmatch(el.XMLName.Local)
		if matches == nil || len(el.Values) == 0 {
			continue
		}
		id, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		// each channel carries exactly one unit/value pair
		value, err := strconv.ParseFloat(strings.TrimSpace(el.Values[0].Value), 64)
		if err != nil {
			continue
		}
		reading.Channels = append(reading.Channels, ChannelReading{
			ChannelID: id,
			Unit:      el.Values[0].XMLName.Local,
			Value:     value,
		})
	}
	if len(reading.Channels) == 0 {
		return SensorReading{}, false
	}
	return reading, true
}
