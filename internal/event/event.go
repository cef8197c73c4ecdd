// Package event defines what a run reports to the outside world. A renderer replays
// the events in order to draw the picture.
package event

import (
	"fmt"
	"strconv"
)

type Kind string

const (
	CLEAR Kind = "ClearEvent"
	MOVE  Kind = "MoveEvent"
	SAY   Kind = "SayEvent"
	ERROR Kind = "ErrorEvent"
)

type Event interface {
	Kind() Kind
	String() string
}

// ClearEvent starts every run: the canvas is wiped and the turtle redrawn at its origin.
type ClearEvent struct{}

func (ClearEvent) Kind() Kind     { return CLEAR }
func (ClearEvent) String() string { return "clear" }

// MoveEvent draws a line from (FromX, FromY) to (ToX, ToY) when PenDown is set.
// A zero-length move only reorients the turtle.
type MoveEvent struct {
	FromX   int     `json:"fromX" cbor:"fromX"`
	FromY   int     `json:"fromY" cbor:"fromY"`
	ToX     int     `json:"toX" cbor:"toX"`
	ToY     int     `json:"toY" cbor:"toY"`
	PenDown bool    `json:"isPenDown" cbor:"isPenDown"`
	Color   string  `json:"color" cbor:"color"`
	Heading float64 `json:"newDirection" cbor:"newDirection"`
}

func (MoveEvent) Kind() Kind { return MOVE }
func (m MoveEvent) String() string {
	pen := "up"
	if m.PenDown {
		pen = "down"
	}
	return fmt.Sprintf("move: (%d,%d) -> (%d,%d) pen=%s color=%s heading=%s",
		m.FromX, m.FromY, m.ToX, m.ToY, pen, m.Color, strconv.FormatFloat(m.Heading, 'f', -1, 64))
}

type SayEvent struct {
	Message string `json:"message" cbor:"message"`
}

func (SayEvent) Kind() Kind       { return SAY }
func (s SayEvent) String() string { return "say: " + s.Message }

type ErrorEvent struct {
	Message string `json:"errorMessage" cbor:"errorMessage"`
}

func (ErrorEvent) Kind() Kind       { return ERROR }
func (e ErrorEvent) String() string { return "error: " + e.Message }

// Errors returns the messages of all error events in events.
func Errors(events []Event) []string {
	var messages []string
	for _, e := range events {
		if ee, ok := e.(ErrorEvent); ok {
			messages = append(messages, ee.Message)
		}
	}
	return messages
}
