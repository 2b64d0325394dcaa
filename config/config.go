// Package config loads the tracker configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"memsweep/memscan"
	"memsweep/process"
	"memsweep/process/memory_map"
	"memsweep/projection"
	"memsweep/tracker"

	"gopkg.in/yaml.v2"
)

// Hex is a uint64 written as 0x-prefixed hex in the file. Plain decimal is accepted too.
type Hex uint64

func (h Hex) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("0x%x", uint64(h)), nil
}

func (h *Hex) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	*h = Hex(v)
	return nil
}

// Screen is the reference viewport points are projected onto.
type Screen struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	FOV             float64 `yaml:"fov"`
	RightIsNegative bool    `yaml:"right-is-negative"`
}

// Scan mirrors memscan.ScanOptions.
type Scan struct {
	ChunkSize   uint64 `yaml:"chunk-size"`
	PrivateOnly bool   `yaml:"private-only"`
	Alignment   uint64 `yaml:"alignment"`
	// AnyProtection scans every readable region, not only writable ones.
	AnyProtection bool `yaml:"any-protection"`
}

// Config defines everything the track command needs.
type Config struct {
	// Process is the image name of the target; PID wins when set.
	Process string `yaml:"process"`
	PID     int    `yaml:"pid,omitempty"`

	// Module whose load address the offsets below are relative to.
	Module string `yaml:"module"`

	// CameraPath is a pointer path from the module base to the 12-float
	// camera transform; a single entry is a plain offset.
	CameraPath []Hex `yaml:"camera-path"`

	// Class selects the entry of Classes whose vtable identifies tracked objects.
	Class   string         `yaml:"class"`
	Classes map[string]Hex `yaml:"classes"`

	PositionOffset Hex     `yaml:"position-offset"`
	MaxDistance    float64 `yaml:"max-distance"`

	Screen   Screen        `yaml:"screen"`
	Interval time.Duration `yaml:"interval"`
	Scan     Scan          `yaml:"scan"`
}

// Default returns the configuration the tool ships with.
func Default() *Config {
	return &Config{
		Process:    "Dishonored2.exe",
		Module:     "Dishonored2.exe",
		CameraPath: []Hex{0x2BC59A0},
		Class:      "movable",
		Classes: map[string]Hex{
			"pickup":  0x1c5e258,
			"movable": 0x1c5de18,
			"usable":  0x1c5ec38,
		},
		PositionOffset: 0x300,
		MaxDistance:    10,
		Screen: Screen{
			Width:           2560,
			Height:          1440,
			FOV:             110,
			RightIsNegative: true,
		},
		Interval: 10 * time.Millisecond,
		Scan: Scan{
			ChunkSize:   16 << 20,
			PrivateOnly: true,
			Alignment:   8,
		},
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unable to decode config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path.
func Save(path string, c *Config) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

func (c *Config) Validate() error {
	if c.Process == "" && c.PID == 0 {
		return fmt.Errorf("need process or pid")
	}
	if _, ok := c.Classes[c.Class]; !ok {
		return fmt.Errorf("class %q not in classes", c.Class)
	}
	if len(c.CameraPath) == 0 {
		return fmt.Errorf("camera-path is empty")
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Screen.FOV <= 0 || c.Screen.FOV >= 180 {
		return fmt.Errorf("fov %v out of range", c.Screen.FOV)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.Scan.Alignment == 0 {
		return fmt.Errorf("scan alignment must be positive")
	}
	return nil
}

// ScanOptions converts the scan section.
func (c *Config) ScanOptions() []memscan.Option {
	opts := []memscan.Option{
		memscan.WithPrivateOnly(c.Scan.PrivateOnly),
		memscan.WithAlignment(c.Scan.Alignment),
	}
	if c.Scan.ChunkSize > 0 {
		opts = append(opts, memscan.WithChunkSize(c.Scan.ChunkSize))
	}
	if c.Scan.AnyProtection {
		opts = append(opts, memscan.WithAllowedProtection(memory_map.ProtAccessible))
	}
	return opts
}

func (c *Config) ProjectionScreen() projection.Screen {
	return projection.Screen{
		Width:           float64(c.Screen.Width),
		Height:          float64(c.Screen.Height),
		HorizontalFOV:   c.Screen.FOV,
		RightIsNegative: c.Screen.RightIsNegative,
	}
}

// TrackerSettings resolves the module-relative offsets against moduleBase.
func (c *Config) TrackerSettings(moduleBase process.ProcessMemoryAddress) tracker.Settings {
	path := make([]process.ProcessMemorySize, len(c.CameraPath))
	for i, off := range c.CameraPath {
		path[i] = process.ProcessMemorySize(off)
	}

	vptr := uint64(moduleBase) + uint64(c.Classes[c.Class])

	return tracker.Settings{
		CameraBase:     moduleBase,
		CameraPath:     path,
		Identity:       process.PatternFromUint64(vptr),
		PositionOffset: uint64(c.PositionOffset),
		MaxDistance:    c.MaxDistance,
		Screen:         c.ProjectionScreen(),
		Interval:       c.Interval,
		Scan:           c.ScanOptions(),
	}
}
