package app

// Display control commands accepted by the render loop. Send any of these on
// Badge.Commands().

// Pause suspends frame updates; the last frame stays on the strip.
type Pause struct{}

// Resume restarts frame updates.
type Resume struct{}

// Off blanks the strip and pauses.
type Off struct{}

// Torch forces the whole strip to white at the current brightness while on,
// suspending the animation.
type Torch struct{ On bool }

// SetBrightness adjusts the global brightness (0-255).
type SetBrightness struct{ Level uint8 }
