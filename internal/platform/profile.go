// Package platform resolves per-OS capture and network tuning profiles.
//
// Microphone hardware, OS mixer behavior, and typical deployment
// environments differ enough between OS families that the voice
// activity threshold and pause timing need different defaults on each.
// A profile is resolved once at startup and treated as immutable.
package platform

import "time"

// Tier names the aggressiveness of a tuning profile. Conservative
// profiles tolerate noisy input at the cost of latency; aggressive
// profiles cut utterances quickly and expect a clean signal.
type Tier string

const (
	TierConservative Tier = "conservative"
	TierBalanced     Tier = "balanced"
	TierAggressive   Tier = "aggressive"
)

// Profile carries every tunable that varies by OS family.
type Profile struct {
	Tier Tier

	// EnergyThresholdDB is the dBFS level above which a frame counts
	// as speech.
	EnergyThresholdDB float64

	// Pause is the trailing silence that closes an utterance.
	Pause time.Duration

	// MinSpeech is the utterance floor; segments with less accumulated
	// speech are discarded as noise blips.
	MinSpeech time.Duration

	// MaxUtterance force-closes a segment even while speech continues.
	MaxUtterance time.Duration

	// NetworkTimeout bounds each backend answer request.
	NetworkTimeout time.Duration
}

// Resolve maps a GOOS value to its tuning profile. Unknown platforms
// get the aggressive profile, which matches typical headset setups.
func Resolve(goos string) Profile {
	switch goos {
	case "windows":
		// Built-in laptop arrays with OS-level AGC run hot, so the
		// threshold is loose and the pause long.
		return Profile{
			Tier:              TierConservative,
			EnergyThresholdDB: -28,
			Pause:             1600 * time.Millisecond,
			MinSpeech:         500 * time.Millisecond,
			MaxUtterance:      75 * time.Second,
			NetworkTimeout:    35 * time.Second,
		}
	case "darwin":
		return Profile{
			Tier:              TierBalanced,
			EnergyThresholdDB: -32,
			Pause:             1200 * time.Millisecond,
			MinSpeech:         500 * time.Millisecond,
			MaxUtterance:      75 * time.Second,
			NetworkTimeout:    25 * time.Second,
		}
	default:
		return Profile{
			Tier:              TierAggressive,
			EnergyThresholdDB: -36,
			Pause:             900 * time.Millisecond,
			MinSpeech:         400 * time.Millisecond,
			MaxUtterance:      75 * time.Second,
			NetworkTimeout:    20 * time.Second,
		}
	}
}

// ForTier returns the profile for an explicit tier override,
// independent of the running OS.
func ForTier(t Tier) (Profile, bool) {
	switch t {
	case TierConservative:
		return Resolve("windows"), true
	case TierBalanced:
		return Resolve("darwin"), true
	case TierAggressive:
		return Resolve("linux"), true
	}
	return Profile{}, false
}
