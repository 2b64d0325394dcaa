// Package overlay presents projected points. A Sink owns its drawing
// context explicitly; nothing here is global.
package overlay

// Point is a pixel position on the reference screen.
type Point struct {
	X, Y int
}

// Sink receives one frame of points per tick. refW and refH are the size of
// the reference screen the points were projected onto.
type Sink interface {
	Draw(points []Point, refW, refH int) error
	Close() error
}
