package overlay

import (
	"fmt"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LogSink logs a summary of each frame. Used when no terminal is available.
type LogSink struct {
	log   *logger.Logger
	last  int
	frame uint64
}

func NewLogSink() *LogSink {
	return &LogSink{
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "overlay")),
		last: -1,
	}
}

// Draw logs at info level when the number of points changes and at debug
// level otherwise.
func (s *LogSink) Draw(points []Point, refW, refH int) error {
	s.frame++

	msg := fmt.Sprintf("frame %d: %d points on %dx%d", s.frame, len(points), refW, refH)
	if len(points) != s.last {
		s.log.Infoln(msg)
	} else {
		s.log.Debugln(msg)
	}
	s.last = len(points)

	for _, p := range points {
		s.log.Debugln("point", p.X, p.Y)
	}
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
