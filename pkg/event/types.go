// Package event carries reader lifecycle and discovery notifications from
// the card-facing components to whoever renders or records them.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gregLibert/card-explorer/pkg/tlv"
)

// Type identifies the kind of notification. Values fit in the Bus bitmask.
type Type uint8

const (
	DeviceActivated Type = iota
	DeviceDeactivated
	CardInserted
	CardRemoved
	CommandIssued
	ResponseReceived
	PSESelected
	ApplicationTemplateFound
	ApplicationSelected
	DiscoveryComplete
	DiscoveryFailed

	numTypes
)

var typeNames = [numTypes]string{
	DeviceActivated:          "device-activated",
	DeviceDeactivated:        "device-deactivated",
	CardInserted:             "card-inserted",
	CardRemoved:              "card-removed",
	CommandIssued:            "command-issued",
	ResponseReceived:         "response-received",
	PSESelected:              "pse-selected",
	ApplicationTemplateFound: "application-template-found",
	ApplicationSelected:      "application-selected",
	DiscoveryComplete:        "discovery-complete",
	DiscoveryFailed:          "discovery-failed",
}

func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// AllTypes lists every notification kind.
func AllTypes() []Type {
	types := make([]Type, numTypes)
	for i := range types {
		types[i] = Type(i)
	}
	return types
}

// Application is the decoded part of an Application Template (Tag '61').
type Application struct {
	AID      string `cbor:"1,keyasint"`
	Label    string `cbor:"2,keyasint,omitempty"`
	Priority int    `cbor:"3,keyasint,omitempty"`
}

// Exchange is one command and the card's answer.
type Exchange struct {
	Command []byte `cbor:"1,keyasint"`
	Data    []byte `cbor:"2,keyasint,omitempty"`
	Status  uint16 `cbor:"3,keyasint"`
}

// Event is a single notification. Only the fields relevant to Type are set.
type Event struct {
	Type    Type      `cbor:"1,keyasint"`
	Time    time.Time `cbor:"2,keyasint"`
	Reader  string    `cbor:"3,keyasint,omitempty"`
	Session uuid.UUID `cbor:"4,keyasint"`

	// card-inserted
	ATR []byte `cbor:"5,keyasint,omitempty"`

	// command-issued, response-received
	Command []byte `cbor:"6,keyasint,omitempty"`
	Data    []byte `cbor:"7,keyasint,omitempty"`
	Status  uint16 `cbor:"8,keyasint,omitempty"`
	OK      bool   `cbor:"9,keyasint,omitempty"`
	Meaning string `cbor:"10,keyasint,omitempty"`

	// pse-selected
	SFI string `cbor:"11,keyasint,omitempty"`

	// application-template-found
	Template    *tlv.Node    `cbor:"12,keyasint,omitempty"`
	Application *Application `cbor:"13,keyasint,omitempty"`

	// application-selected
	AID string `cbor:"14,keyasint,omitempty"`

	// discovery-complete
	Results []Exchange `cbor:"15,keyasint,omitempty"`

	// discovery-failed
	Reason string `cbor:"16,keyasint,omitempty"`
}

// New stamps an event of type t with the current time.
func New(t Type) Event {
	return Event{Type: t, Time: time.Now()}
}

func (e Event) String() string {
	s := e.Type.String()
	if e.Reader != "" {
		s += fmt.Sprintf(" reader=%q", e.Reader)
	}
	switch e.Type {
	case CardInserted:
		s += fmt.Sprintf(" atr=%X", e.ATR)
	case CommandIssued:
		s += fmt.Sprintf(" command=%X", e.Command)
	case ResponseReceived:
		s += fmt.Sprintf(" status=%04X data=%X", e.Status, e.Data)
	case PSESelected:
		s += " sfi=" + e.SFI
	case ApplicationTemplateFound:
		if e.Application != nil {
			s += " aid=" + e.Application.AID
		}
	case ApplicationSelected:
		s += " aid=" + e.AID
	case DiscoveryComplete:
		s += fmt.Sprintf(" results=%d", len(e.Results))
	case DiscoveryFailed:
		s += fmt.Sprintf(" reason=%q", e.Reason)
	}
	return s
}

// Sink receives notifications. Publish must not block.
type Sink interface {
	Publish(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})
