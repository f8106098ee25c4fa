package fleet

import (
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
)

// demoDevices is the fixture fleet shown on a fresh dashboard
var demoDevices = []domain.Device{
	{ID: "android_pixel_7", Platform: "android", Status: domain.DeviceOnline, Battery: 87},
	{ID: "android_galaxy_s23", Platform: "android", Status: domain.DeviceOnline, Battery: 64},
	{ID: "ios_iphone_15", Platform: "ios", Status: domain.DeviceBusy, Battery: 52},
	{ID: "ios_iphone_se", Platform: "ios", Status: domain.DeviceOffline, Battery: 11},
}

// Seed inserts the demo fixtures if the registry is empty
func (s *Store) Seed() error {
	devices, err := s.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) > 0 {
		return nil
	}

	now := time.Now()
	for _, d := range demoDevices {
		d.LastSeen = now
		if err := s.UpsertDevice(&d); err != nil {
			return err
		}
	}

	records := []domain.TaskRecord{
		{Name: "Send $20 to Jane", Status: domain.TaskSuccess, Device: "android_pixel_7", Duration: 4200 * time.Millisecond},
		{Name: "Order morning coffee", Status: domain.TaskSuccess, Device: "ios_iphone_15", Duration: 6100 * time.Millisecond},
		{Name: "Check unread messages", Status: domain.TaskFailure, Device: "android_galaxy_s23", Duration: 2800 * time.Millisecond},
	}
	for i := range records {
		records[i].CreatedAt = now.Add(-time.Duration(len(records)-i) * time.Minute)
		if _, err := s.InsertTaskRecord(&records[i]); err != nil {
			return err
		}
	}
	return nil
}
