package devices

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/entities"
)

// syncDelay simulates the round trip of a device sync pass.
const syncDelay = 2 * time.Second

// MockRepository is the mocked device ecosystem: a static seeded
// device list with credential validation and a simulated sync pass.
// Nothing in the conversation core depends on this data being real.
type MockRepository struct {
	logger    *zap.Logger
	syncDelay time.Duration

	mu      sync.RWMutex
	order   []string
	devices map[string]*entities.Device
	secrets map[string]string // serial_number -> secret_key
	rand    *rand.Rand
}

// NewMockRepository creates the repository with the stock ecosystem:
// the local host device plus three pre-registered remote devices.
func NewMockRepository(logger *zap.Logger) *MockRepository {
	r := &MockRepository{
		logger:    logger,
		syncDelay: syncDelay,
		devices:   make(map[string]*entities.Device),
		secrets:   make(map[string]string),
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	now := time.Now()
	r.seed(&entities.Device{
		ID:           uuid.NewString(),
		SerialNumber: "ARIA-LOCAL",
		SecretKey:    "local-secret",
		Name:         "This device",
		Type:         entities.DeviceTypeLaptop,
		Status:       entities.DeviceStatusOnline,
		LastSeen:     now,
		BatteryLevel: r.rand.Intn(100),
	})
	r.seed(&entities.Device{
		ID:           "device_laptop_001",
		SerialNumber: "ARIA001",
		SecretKey:    "secret123",
		Name:         "MacBook Pro",
		Type:         entities.DeviceTypeLaptop,
		Status:       entities.DeviceStatusOnline,
		LastSeen:     now.Add(-5 * time.Minute),
		BatteryLevel: 87,
		Location:     "Home Office",
	})
	r.seed(&entities.Device{
		ID:           "device_mobile_001",
		SerialNumber: "ARIA002",
		SecretKey:    "secret456",
		Name:         "iPhone 15",
		Type:         entities.DeviceTypeMobile,
		Status:       entities.DeviceStatusSyncing,
		LastSeen:     now.Add(-2 * time.Minute),
		BatteryLevel: 64,
		Location:     "Living Room",
	})
	r.seed(&entities.Device{
		ID:           "device_tablet_001",
		SerialNumber: "ARIA003",
		SecretKey:    "secret789",
		Name:         "iPad Pro",
		Type:         entities.DeviceTypeTablet,
		Status:       entities.DeviceStatusOffline,
		LastSeen:     now.Add(-30 * time.Minute),
		BatteryLevel: 23,
		Location:     "Bedroom",
	})

	return r
}

func (r *MockRepository) seed(device *entities.Device) {
	r.order = append(r.order, device.ID)
	r.devices[device.ID] = device
	r.secrets[device.SerialNumber] = device.SecretKey
}

// List implements repositories.DeviceRepository. Devices come back in
// seed order.
func (r *MockRepository) List(ctx context.Context) ([]*entities.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Device, 0, len(r.order))
	for _, id := range r.order {
		d := *r.devices[id]
		out = append(out, &d)
	}
	return out, nil
}

// GetByID implements repositories.DeviceRepository.
func (r *MockRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, exists := r.devices[id]
	if !exists {
		return nil, errors.New("device not found")
	}
	d := *device
	return &d, nil
}

// ValidateDevice validates device credentials (serial number + secret).
func (r *MockRepository) ValidateDevice(serialNumber, secret string) (*entities.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	storedSecret, exists := r.secrets[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}
	if storedSecret != secret {
		return nil, errors.New("invalid credentials")
	}

	for _, device := range r.devices {
		if device.SerialNumber == serialNumber {
			d := *device
			return &d, nil
		}
	}
	return nil, errors.New("device not found")
}

// Sync implements repositories.DeviceRepository: after a simulated
// delay, every device gets a fresh last-seen time and a re-rolled
// status (online most of the time).
func (r *MockRepository) Sync(ctx context.Context) error {
	r.mu.RLock()
	delay := r.syncDelay
	r.mu.RUnlock()

	r.logger.Info("Device sync started", zap.Duration("delay", delay))

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, device := range r.devices {
		if r.rand.Float64() > 0.1 {
			device.Status = entities.DeviceStatusOnline
		} else {
			device.Status = entities.DeviceStatusOffline
		}
		device.LastSeen = now
	}

	r.logger.Info("Device sync completed", zap.Int("devices", len(r.devices)))
	return nil
}

// SetSyncDelay overrides the simulated sync duration. Tests set it to
// zero.
func (r *MockRepository) SetSyncDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncDelay = d
}
