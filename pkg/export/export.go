// Package export writes vehicle charging schedules for downstream tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/chargeboard/core/chart"
)

// Entry is one charging slot of one vehicle.
type Entry struct {
	VehicleID string  `json:"vehicle_id"`
	Hour      int     `json:"hour"`
	PowerKW   float64 `json:"power_kw"`
}

// Entries lists the slots with a non-zero load, vehicle by vehicle in
// payload order and hour by hour.
func Entries(s *chart.Schedule) []Entry {
	entries := []Entry{}
	for _, v := range s.Vehicles() {
		for h := 0; h < s.Hours(); h++ {
			if kw := s.VehicleKW(v, h); kw != 0 {
				entries = append(entries, Entry{VehicleID: v, Hour: h, PowerKW: kw})
			}
		}
	}
	return entries
}

// WriteJSON writes entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes entries to w with a vehicle_id,hour,power_kw header.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"vehicle_id", "hour", "power_kw"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.VehicleID,
			strconv.Itoa(e.Hour),
			strconv.FormatFloat(e.PowerKW, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
