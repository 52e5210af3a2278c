package domain

// Telemetry is the self-reported state snapshot a car attaches to a heartbeat.
type Telemetry struct {
	GPS           [2]float32 `json:"gps"`
	Heading       uint16     `json:"heading"`
	CamPos        [2]uint8   `json:"camPos"`
	BatteryCharge uint8      `json:"batteryCharge"`
	Speed         uint8      `json:"speed"`
	LatencyMS     uint32     `json:"latencyMs"`
	LastChanged   int64      `json:"lastChanged"`
}
