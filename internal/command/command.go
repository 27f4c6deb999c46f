// Package command defines the set_pixel message sent to the canvas service.
package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/palette"
)

// SetPixel is the command tag for pixel updates.
const SetPixel = "set_pixel"

// ErrInvalid is returned by Decode for frames that are not valid commands.
var ErrInvalid = errors.New("invalid command")

// Pixel is the payload of a set_pixel command.
type Pixel struct {
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Colour palette.Colour `json:"colour"`
}

// Coordinate returns the grid cell the pixel targets.
func (p Pixel) Coordinate() grid.Coordinate {
	return grid.Coordinate{X: p.X, Y: p.Y}
}

// PixelCommand is the structured value handed to the transport each cycle.
type PixelCommand struct {
	Command string `json:"command"`
	Payload Pixel  `json:"payload"`
}

// NewSetPixel builds a set_pixel command for the given cell and colour.
func NewSetPixel(c grid.Coordinate, colour palette.Colour) PixelCommand {
	return PixelCommand{
		Command: SetPixel,
		Payload: Pixel{X: c.X, Y: c.Y, Colour: colour},
	}
}

// Encode serializes the command as a JSON text frame.
func (c PixelCommand) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode command: %w", err)
	}
	return string(data), nil
}

// Decode parses a text frame and checks that it is a well formed set_pixel.
func Decode(frame string) (PixelCommand, error) {
	var c PixelCommand
	if err := json.Unmarshal([]byte(frame), &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Command != SetPixel {
		return c, fmt.Errorf("%w: unknown command %q", ErrInvalid, c.Command)
	}
	if c.Payload.X < 0 || c.Payload.Y < 0 {
		return c, fmt.Errorf("%w: negative coordinate %s", ErrInvalid, c.Payload.Coordinate())
	}
	if !c.Payload.Colour.Valid() {
		return c, fmt.Errorf("%w: colour %s out of range", ErrInvalid, c.Payload.Colour)
	}
	return c, nil
}
