// pkg/penalty/interval.go
// Interval resolution: pair the latest disconnect of a device with the
// earliest reconnect after it, from an in-window event stream.

package penalty

import "time"

type EventKind int

const (
	EventDisconnect EventKind = iota
	EventConnect
)

// Event is one in-window incident-log entry, already filtered to the two
// interpreted alarm patterns. Events outside [window start, window end)
// must not be passed in.
type Event struct {
	LogID         int64
	DeviceID      int64
	At            time.Time
	Kind          EventKind
	SubCategoryID *int64 // waiver tag on the log row, nil when not waived
}

// Interval is a derived offline window for one device.
type Interval struct {
	DeviceID      int64
	LogID         int64 // log row of the chosen disconnect event
	Offline       time.Time
	Online        *time.Time // nil = still offline as of window end
	SubCategoryID *int64     // waiver tag carried from the disconnect event
}

// ResolveIntervals computes at most one interval per device:
//   - offline = the disconnect with the latest timestamp; on identical
//     timestamps the later event in stream order wins (last write wins)
//   - online  = the earliest connect strictly after offline (never at or
//     before it); nil when the device has not reconnected in-window
//
// Devices with no disconnect event produce no interval at all.
func ResolveIntervals(events []Event) map[int64]Interval {
	out := make(map[int64]Interval)

	for _, ev := range events {
		if ev.Kind != EventDisconnect {
			continue
		}
		cur, ok := out[ev.DeviceID]
		if !ok || !ev.At.Before(cur.Offline) {
			out[ev.DeviceID] = Interval{
				DeviceID:      ev.DeviceID,
				LogID:         ev.LogID,
				Offline:       ev.At,
				SubCategoryID: ev.SubCategoryID,
			}
		}
	}

	for _, ev := range events {
		if ev.Kind != EventConnect {
			continue
		}
		cur, ok := out[ev.DeviceID]
		if !ok || !ev.At.After(cur.Offline) {
			continue
		}
		if cur.Online == nil || ev.At.Before(*cur.Online) {
			at := ev.At
			cur.Online = &at
			out[ev.DeviceID] = cur
		}
	}

	return out
}
