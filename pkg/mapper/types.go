package mapper

import "path/filepath"

// MapperRequest is the FSM input
type MapperRequest struct {
	GameExe    string
	DLLPath    string
	DumpDir    string
	OutputFile string
}

// MapperResponse is the FSM output (accumulated across transitions)
type MapperResponse struct {
	// From Launch
	PID int

	// From Poll
	MappingFile string

	// From Extract
	OutputFile string

	// From Complete/Failed
	Status       string
	ErrorMessage string
}

// State names
const (
	StateLaunch   = "launch"
	StateInject   = "inject"
	StatePoll     = "poll"
	StateExtract  = "extract"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// GameExeName is the process name the conflict check and termination
// fallback match against.
const GameExeName = "WRFrontiers-Win64-Shipping.exe"

// GameExePath returns the shipping binary inside a game install dir.
func GameExePath(gameDir string) string {
	return filepath.Join(gameDir, "13_2017027", "WRFrontiers", "Binaries", "Win64", GameExeName)
}
