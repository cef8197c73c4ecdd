// Package trace reads and writes recorded event sequences. JSON traces use the record
// shape the web renderer consumes; CBOR traces carry the same records in canonical form.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"kidcode/internal/event"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

type Format string

const (
	JSON Format = "json"
	CBOR Format = "cbor"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".cbor":
		return CBOR, nil
	}
	return "", fmt.Errorf("trace: unsupported trace file extension %q (want .json or .cbor)", filepath.Ext(path))
}

type header struct {
	Type event.Kind `json:"type" cbor:"type"`
}

type clearRecord struct {
	Type event.Kind `json:"type" cbor:"type"`
}

type moveRecord struct {
	Type event.Kind `json:"type" cbor:"type"`
	event.MoveEvent
}

type sayRecord struct {
	Type event.Kind `json:"type" cbor:"type"`
	event.SayEvent
}

type errorRecord struct {
	Type event.Kind `json:"type" cbor:"type"`
	event.ErrorEvent
}

// Record wraps ev in its wire shape: the event's fields plus a "type" discriminator.
func Record(ev event.Event) (interface{}, error) {
	switch e := ev.(type) {
	case event.ClearEvent:
		return clearRecord{Type: event.CLEAR}, nil
	case event.MoveEvent:
		return moveRecord{Type: event.MOVE, MoveEvent: e}, nil
	case event.SayEvent:
		return sayRecord{Type: event.SAY, SayEvent: e}, nil
	case event.ErrorEvent:
		return errorRecord{Type: event.ERROR, ErrorEvent: e}, nil
	}
	return nil, fmt.Errorf("trace: unknown event type %T", ev)
}

func records(events []event.Event) ([]interface{}, error) {
	out := make([]interface{}, len(events))
	for i, ev := range events {
		rec, err := Record(ev)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// decodeRecord rebuilds an event from one encoded record using unmarshal, which is
// json.Unmarshal or cbor.Unmarshal.
func decodeRecord(data []byte, unmarshal func([]byte, interface{}) error) (event.Event, error) {
	var h header
	if err := unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("trace: read record type: %w", err)
	}

	switch h.Type {
	case event.CLEAR:
		return event.ClearEvent{}, nil
	case event.MOVE:
		var r moveRecord
		if err := unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("trace: read move event: %w", err)
		}
		return r.MoveEvent, nil
	case event.SAY:
		var r sayRecord
		if err := unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("trace: read say event: %w", err)
		}
		return r.SayEvent, nil
	case event.ERROR:
		var r errorRecord
		if err := unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("trace: read error event: %w", err)
		}
		return r.ErrorEvent, nil
	}
	return nil, fmt.Errorf("trace: unknown record type %q", h.Type)
}

func MarshalJSON(events []event.Event) ([]byte, error) {
	recs, err := records(events)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(recs, "", "  ")
}

func UnmarshalJSON(data []byte) ([]event.Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("trace: unmarshal json trace: %w", err)
	}
	events := make([]event.Event, 0, len(raw))
	for _, r := range raw {
		ev, err := decodeRecord(r, json.Unmarshal)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func MarshalCBOR(events []event.Event) ([]byte, error) {
	recs, err := records(events)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(recs)
}

func UnmarshalCBOR(data []byte) ([]event.Event, error) {
	var raw []cbor.RawMessage
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("trace: unmarshal cbor trace: %w", err)
	}
	events := make([]event.Event, 0, len(raw))
	for _, r := range raw {
		ev, err := decodeRecord(r, cbor.Unmarshal)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// MarshalEvent encodes a single event as a canonical CBOR record.
func MarshalEvent(ev event.Event) ([]byte, error) {
	rec, err := Record(ev)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(rec)
}

func UnmarshalEvent(data []byte) (event.Event, error) {
	return decodeRecord(data, cbor.Unmarshal)
}

func Encode(w io.Writer, format Format, events []event.Event) error {
	var data []byte
	var err error
	switch format {
	case JSON:
		data, err = MarshalJSON(events)
	case CBOR:
		data, err = MarshalCBOR(events)
	default:
		return fmt.Errorf("trace: unknown format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func Decode(r io.Reader, format Format) ([]event.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}
	switch format {
	case JSON:
		return UnmarshalJSON(data)
	case CBOR:
		return UnmarshalCBOR(data)
	}
	return nil, fmt.Errorf("trace: unknown format %q", format)
}

// WriteFile writes events to path, choosing the format from its extension and creating
// parent directories as needed.
func WriteFile(path string, events []event.Event) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("trace: create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, format, events); err != nil {
		return fmt.Errorf("trace: write %s: %w", path, err)
	}
	return f.Close()
}

func ReadFile(path string) ([]event.Event, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, format)
}
