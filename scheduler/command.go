package scheduler

import (
	"errors"
	"fmt"

	"lautenbacher.net/jigleds/animation"
)

// ErrInvalidCommand is returned for commands that fail validation. They are
// dropped without touching any state.
var ErrInvalidCommand = errors.New("invalid command")

// addressOffset is added to a jig position to get the device address shown
// on the display. The result must be a valid 7 bit address.
const (
	addressOffset = 0x08
	maxAddress    = 0x77
)

// Command is a control message for the coordinator. The set is closed.
type Command interface {
	command()
}

type (
	// Stop suspends animation updates.
	Stop struct{}
	// Start resumes animation updates.
	Start struct{}
	// Off turns the strip dark and stops animation updates.
	Off struct{}
	// On resumes animation updates.
	On struct{}
	// Init shows the idle prompt on the display.
	Init struct{}
	// Torch shows solid white instead of animations while On is set.
	Torch struct{ On bool }
	// Brightness sets the strip level for animations and the torch.
	Brightness struct{ Level uint8 }
	// SetAddress shows the position and the resulting device address.
	SetAddress struct{ Position uint8 }
	// Play queues an animation.
	Play struct {
		Animation animation.Animation
		result    chan error
	}
	// query asks for a Status snapshot.
	query struct{ reply chan Status }
)

func (Stop) command()       {}
func (Start) command()      {}
func (Off) command()        {}
func (On) command()         {}
func (Init) command()       {}
func (Torch) command()      {}
func (Brightness) command() {}
func (SetAddress) command() {}
func (Play) command()       {}
func (query) command()      {}

func (c SetAddress) Address() uint8 {
	return c.Position + addressOffset
}

func (c Torch) String() string {
	if c.On {
		return "Torch(on)"
	}
	return "Torch(off)"
}

// Validate reports whether cmd may be applied.
func Validate(cmd Command) error {
	switch cmd := cmd.(type) {
	case nil:
		return fmt.Errorf("%w: nil command", ErrInvalidCommand)
	case SetAddress:
		if int(cmd.Position)+addressOffset > maxAddress {
			return fmt.Errorf("%w: position %d gives address 0x%x beyond 0x%x", ErrInvalidCommand, cmd.Position, int(cmd.Position)+addressOffset, maxAddress)
		}
	case Play:
		if cmd.Animation == nil {
			return fmt.Errorf("%w: play without animation", ErrInvalidCommand)
		}
	case query:
		if cmd.reply == nil {
			return fmt.Errorf("%w: query without reply channel", ErrInvalidCommand)
		}
	}
	return nil
}

// Display texts.
const InitText = "Press button\nto start"

func AddressText(position uint8) string {
	return fmt.Sprintf("Position: %d\nAddress: 0x%x", position, int(position)+addressOffset)
}
