package entities

// SystemStats holds one reading of the fabricated utilization figures.
// Percent values are 0-99, temperature is degrees Celsius.
type SystemStats struct {
	CPU         int `json:"cpu"`
	GPU         int `json:"gpu"`
	RAM         int `json:"ram"`
	Temperature int `json:"temperature"`
	DiskUsage   int `json:"disk_usage"`
}
