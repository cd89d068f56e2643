package parameter

import "time"

// Sandbox - Terminal loop
const (
	// SandboxFrameInterval is the redraw tick (~60 FPS)
	SandboxFrameInterval = 16 * time.Millisecond

	// SandboxErrorBlink is how long the cursor flashes red after an unreachable request
	SandboxErrorBlink = 500 * time.Millisecond

	// SandboxCursorBlink is the cursor blink period
	SandboxCursorBlink = 500 * time.Millisecond

	// SandboxMazeBraiding is the default braiding factor for generated sandbox layouts
	SandboxMazeBraiding = 0.2
)

// Sandbox - Audio cues
const (
	SandboxSampleRate      = 44100
	SandboxToneFound       = 880.0 // Hz
	SandboxToneUnreachable = 220.0 // Hz
	SandboxToneDuration    = 50 * time.Millisecond
)

// Visualizer - Stepper stream
const (
	// VizStepDelay is the default pause between streamed search snapshots
	VizStepDelay = 30 * time.Millisecond
)

// Visualizer - Session limits
const (
	// VizMaxGridDim caps each side of a requested session grid
	VizMaxGridDim = 512
)
