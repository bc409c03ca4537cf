package export

import (
	"bytes"
	"encoding/csv"

	"github.com/vbonduro/stampcam/internal/domain"
	"github.com/vbonduro/stampcam/internal/identity"
)

var (
	devicesHeader  = []string{"room", "index", "deviceType", "checked", "updatedAt"}
	progressHeader = []string{"room", "index", "overview", "lamp", "port", "label", "ipaddress", "checked"}
)

// isoMillis is ISO-8601 in UTC with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z"

// DevicesCSV renders the device summary table. Rows follow the order of
// devices.
func DevicesCSV(devices []*domain.Device) ([]byte, error) {
	rows := make([][]string, 0, len(devices)+1)
	rows = append(rows, devicesHeader)
	for _, d := range devices {
		rows = append(rows, []string{
			d.RoomName,
			identity.FormatDeviceIndex(d.Index),
			d.DeviceType,
			flag(d.Checked),
			d.UpdatedAt.UTC().Format(isoMillis),
		})
	}
	return writeCSV(rows)
}

// ProgressCSV renders one row per device with a 1/0 column per fixed kind.
func ProgressCSV(devices []*domain.Device, kinds map[string]domain.KindSet) ([]byte, error) {
	rows := make([][]string, 0, len(devices)+1)
	rows = append(rows, progressHeader)
	for _, d := range devices {
		done := kinds[d.Key]
		row := []string{d.RoomName, identity.FormatDeviceIndex(d.Index)}
		for _, k := range domain.FixedKinds {
			row = append(row, flag(done.Has(k)))
		}
		row = append(row, flag(d.Checked))
		rows = append(rows, row)
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
