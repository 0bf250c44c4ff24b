package entities

import (
	"errors"
	"time"
)

// DeviceType classifies a device in the user's ecosystem.
type DeviceType string

const (
	DeviceTypeLaptop DeviceType = "laptop"
	DeviceTypeTablet DeviceType = "tablet"
	DeviceTypeMobile DeviceType = "mobile"
)

// DeviceStatus is the last known connectivity state of a device.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
	DeviceStatusSyncing DeviceStatus = "sync"
)

// Device represents one device in the mocked ecosystem.
type Device struct {
	ID           string       `json:"id"`
	SerialNumber string       `json:"serial_number"`
	SecretKey    string       `json:"-"`
	Name         string       `json:"name"`
	Type         DeviceType   `json:"type"`
	Status       DeviceStatus `json:"status"`
	LastSeen     time.Time    `json:"last_seen"`
	BatteryLevel int          `json:"battery_level,omitempty"`
	Location     string       `json:"location,omitempty"`
}

// Validate validates the device data.
func (d *Device) Validate() error {
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	if d.Name == "" {
		return errors.New("name is required")
	}
	switch d.Type {
	case DeviceTypeLaptop, DeviceTypeTablet, DeviceTypeMobile:
	default:
		return errors.New("invalid device type")
	}
	return nil
}
