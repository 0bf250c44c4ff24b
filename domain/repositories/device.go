package repositories

import (
	"context"

	"github.com/ariahq/aria/domain/entities"
)

// DeviceRepository defines access to the user's device ecosystem.
type DeviceRepository interface {
	List(ctx context.Context) ([]*entities.Device, error)
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	// ValidateDevice validates device credentials for authentication.
	ValidateDevice(serialNumber, secret string) (*entities.Device, error)
	// Sync refreshes the status of every known device.
	Sync(ctx context.Context) error
}
