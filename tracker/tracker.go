// Package tracker follows a set of objects found by a memory scan and
// projects their positions onto the screen every tick.
package tracker

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"memsweep/memscan"
	"memsweep/overlay"
	"memsweep/process"
	"memsweep/projection"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

var ErrCameraUnreadable = errors.New("camera transform unreadable")

// Settings are absolute: module-relative offsets are resolved by the caller.
type Settings struct {
	// CameraBase plus CameraPath locate the 12-float camera transform, as in process.ReadPath.
	CameraBase process.ProcessMemoryAddress
	CameraPath []process.ProcessMemorySize

	// Identity is the byte pattern (usually a vtable pointer) every live
	// object starts with. Rescan searches for it.
	Identity       process.Pattern
	PositionOffset uint64
	MaxDistance    float64

	Screen   projection.Screen
	Interval time.Duration
	Scan     []memscan.Option
}

const positionSize = 12 // three float32

// Tracker owns the candidate list between ticks.
type Tracker struct {
	src      process.MemorySource
	settings Settings
	log      *logger.Logger

	mu         sync.Mutex
	candidates []ObjectCandidate
	generation uint64 // bumped whenever the list is replaced from outside Tick
}

func New(src process.MemorySource, settings Settings) *Tracker {
	if settings.Interval <= 0 {
		settings.Interval = 10 * time.Millisecond
	}
	return &Tracker{
		src:      src,
		settings: settings,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "tracker")),
	}
}

// Rescan replaces the candidates with a fresh scan for the identity pattern.
func (t *Tracker) Rescan() int {
	hits := memscan.NewScanner(t.src).Scan(t.settings.Identity, t.settings.Scan...)
	candidates := BuildCandidates(hits, t.src.PageSize())

	t.SetCandidates(candidates)

	t.log.Infoln("tracking", len(candidates), "candidates")
	return len(candidates)
}

// SetCandidates replaces the candidate list.
func (t *Tracker) SetCandidates(c []ObjectCandidate) {
	t.mu.Lock()
	t.candidates = c
	t.generation++
	t.mu.Unlock()
}

// Candidates returns a copy of the current candidate list.
func (t *Tracker) Candidates() []ObjectCandidate {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ObjectCandidate, len(t.candidates))
	copy(out, t.candidates)
	return out
}

func (t *Tracker) readCamera() (projection.Camera, error) {
	f, err := process.ReadPath[[12]float32](t.src, t.settings.CameraBase, t.settings.CameraPath...)
	if err != nil {
		return projection.Camera{}, fmt.Errorf("%w: %w", ErrCameraUnreadable, err)
	}
	return projection.CameraFromFloats(f), nil
}

// Tick reads the camera once, re-validates every candidate and returns the
// projected positions of live ones within range. Candidates whose identity
// bytes are gone or unreadable are dropped for good, unless the list was
// replaced while the tick was reading. Only an unreadable camera is an error.
func (t *Tracker) Tick() ([]overlay.Point, error) {
	cam, err := t.readCamera()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	candidates, generation := t.candidates, t.generation
	t.mu.Unlock()

	need := uint64(len(t.settings.Identity))
	if end := t.settings.PositionOffset + positionSize; end > need {
		need = end
	}

	alive := make([]ObjectCandidate, 0, len(candidates))
	var points []overlay.Point
	var buf []byte

	for _, group := range groupByPage(candidates) {
		lo := group[0].Address
		span := uint64(group[len(group)-1].Address-lo) + need
		if uint64(cap(buf)) < span {
			buf = make([]byte, span)
		}
		buf = buf[:span]

		n, _ := t.src.ReadPartial(lo, buf)

		for _, c := range group {
			off := uint64(c.Address - lo)
			if off+need > uint64(n) {
				continue
			}
			obj := buf[off : off+need]
			if !bytes.Equal(obj[:len(t.settings.Identity)], t.settings.Identity) {
				continue
			}
			alive = append(alive, c)

			pos := decodeVec3(obj[t.settings.PositionOffset:])
			if projection.Distance(cam.Position, pos) > t.settings.MaxDistance {
				continue
			}

			u, v, _ := t.settings.Screen.Project(cam, pos)
			if math.IsNaN(u) || math.IsNaN(v) {
				continue
			}
			points = append(points, overlay.Point{X: int(math.Round(u)), Y: int(math.Round(v))})
		}
	}

	if dropped := len(candidates) - len(alive); dropped > 0 {
		t.log.Debugln("dropped", dropped, "dead candidates,", len(alive), "left")
	}

	// a Rescan or SetCandidates that landed during the reads wins
	t.mu.Lock()
	if t.generation == generation {
		t.candidates = alive
	}
	t.mu.Unlock()

	return points, nil
}

func decodeVec3(b []byte) projection.Vec3 {
	return projection.Vec3{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	}
}

// Run ticks at the configured interval and draws every frame to sink until
// ctx is done or the camera becomes unreadable.
func (t *Tracker) Run(ctx context.Context, sink overlay.Sink) error {
	ticker := time.NewTicker(t.settings.Interval)
	defer ticker.Stop()

	refW, refH := int(t.settings.Screen.Width), int(t.settings.Screen.Height)
	for ctx.Err() == nil {
		points, err := t.Tick()
		if err != nil {
			return err
		}
		if err := sink.Draw(points, refW, refH); err != nil {
			t.log.Warn("draw: ", err)
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	return nil
}
