package audio

import (
	"fmt"
	"strings"
)

// ----- Commands ----- //

// Update applies one command of the text protocol:
//
//	power on|off
//	note_on <pitch> <octave>
//	note_off <pitch> <octave>
//	set <name> <value>
//	params <json>
func (e *Engine) Update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}
	args := command[1:]
	switch command[0] {
	case "power":
		if len(args) != 1 {
			return fmt.Errorf("%w: power needs on or off, got %v", ErrInvalidValue, args)
		}
		switch args[0] {
		case "on":
			e.PowerOn()
		case "off":
			e.PowerOff()
		default:
			return fmt.Errorf("%w: power %q", ErrInvalidValue, args[0])
		}
	case "note_on", "note_off":
		if len(args) != 2 {
			return fmt.Errorf("%w: %s needs pitch and octave, got %v", ErrInvalidNote, command[0], args)
		}
		note, err := ParseNote(args[0], args[1])
		if err != nil {
			return err
		}
		if command[0] == "note_on" {
			e.NoteOn(note)
		} else {
			e.NoteOff(note)
		}
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("%w: invalid key-value pair %v", ErrInvalidValue, args)
		}
		return e.SetParam(args[0], args[1])
	case "params":
		if len(args) == 0 {
			return fmt.Errorf("%w: params needs a JSON object", ErrInvalidValue)
		}
		return e.ApplyParamsJSON([]byte(strings.Join(args, " ")))
	default:
		return fmt.Errorf("%w: %v", ErrUnknownCommand, command[0])
	}
	return nil
}
