package packets

// LogRequest carries a batch of log lines a device uploads.
type LogRequest struct {
	Logs []DeviceLog `json:"logs" binding:"required"`
}

type DeviceLog struct {
	Timestamp int64  `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}
