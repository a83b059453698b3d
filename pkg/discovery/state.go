package discovery

import "fmt"

// State is the position of a session in the discovery protocol.
type State uint8

const (
	Idle State = iota
	PseSelecting
	PseDirectoryReading
	ApplicationIdsExtracted
	ApplicationSelecting
	ApplicationRecordReading
	Done
	Failed
)

var stateNames = map[State]string{
	Idle:                     "Idle",
	PseSelecting:             "PseSelecting",
	PseDirectoryReading:      "PseDirectoryReading",
	ApplicationIdsExtracted:  "ApplicationIdsExtracted",
	ApplicationSelecting:     "ApplicationSelecting",
	ApplicationRecordReading: "ApplicationRecordReading",
	Done:                     "Done",
	Failed:                   "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
