package interpreter

import (
	"github.com/agileandy/bbcbasic/pkg/configuration"
	"github.com/agileandy/bbcbasic/pkg/state"
)

// Options bounds and tunes an interpreter.
type Options struct {
	MaxCallDepth    int
	MaxLoopDepth    int
	MaxStringLength int
	ZoneWidth       int
	// Seed fixes the RND sequence; 0 picks a random seed.
	Seed int64
	// TraceParse dumps every parsed line.
	TraceParse bool
}

// DefaultOptions returns the built-in limits.
func DefaultOptions() Options {
	return Options{
		MaxCallDepth:    256,
		MaxLoopDepth:    200,
		MaxStringLength: state.MaxStringLength,
		ZoneWidth:       10,
	}
}

// OptionsFromConfig reads the [Interpreter] section, falling back to the
// defaults for missing keys.
func OptionsFromConfig() Options {
	def := DefaultOptions()
	return Options{
		MaxCallDepth:    configuration.GetInt("Interpreter", "max_call_depth", def.MaxCallDepth),
		MaxLoopDepth:    configuration.GetInt("Interpreter", "max_loop_depth", def.MaxLoopDepth),
		MaxStringLength: configuration.GetInt("Interpreter", "max_string_length", def.MaxStringLength),
		ZoneWidth:       configuration.GetInt("Interpreter", "print_zone_width", def.ZoneWidth),
		Seed:            configuration.GetInt64("Interpreter", "random_seed", 0),
		TraceParse:      configuration.GetBool("Interpreter", "trace_parse", false),
	}
}

func (o Options) limits() state.Limits {
	return state.Limits{
		MaxCallDepth:    o.MaxCallDepth,
		MaxLoopDepth:    o.MaxLoopDepth,
		MaxStringLength: o.MaxStringLength,
	}
}
