package sequent

import (
	"time"

	"github.com/zoobzio/zyn"
)

// Default configuration for sessions and coordinators.
// These can be overridden per session or per coordinator using builder methods.
var (
	// DefaultTeamName names the coordinating team in echo responses and
	// coordinator instructions.
	DefaultTeamName = "SequentialThinkingTeam"

	// DefaultDelegateTimeout bounds a single coordinator attempt.
	DefaultDelegateTimeout = 2 * time.Minute

	// DefaultDelegateAttempts is the number of coordinator attempts per step.
	// Attempts beyond the first back off exponentially.
	DefaultDelegateAttempts = 1

	// DefaultDelegateBackoff is the base delay between coordinator attempts.
	DefaultDelegateBackoff = time.Second

	// DefaultCoordinatorTemperature is used for coordinator synthesis.
	DefaultCoordinatorTemperature = zyn.DefaultTemperatureAnalytical

	// DefaultCompactionTemperature is used when a coordinator summarizes its
	// own conversation to stay within its window.
	DefaultCompactionTemperature = zyn.DefaultTemperatureCreative

	// DefaultSessionWindow is the number of conversation messages a
	// coordinator keeps before trimming.
	DefaultSessionWindow = 20
)
