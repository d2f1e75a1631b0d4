package platform

import (
	"testing"
	"time"
)

func TestResolveKnownFamilies(t *testing.T) {
	cases := []struct {
		goos string
		tier Tier
	}{
		{"windows", TierConservative},
		{"darwin", TierBalanced},
		{"linux", TierAggressive},
		{"freebsd", TierAggressive},
	}
	for _, c := range cases {
		p := Resolve(c.goos)
		if p.Tier != c.tier {
			t.Errorf("Resolve(%q) tier = %s, want %s", c.goos, p.Tier, c.tier)
		}
		if p.EnergyThresholdDB >= 0 {
			t.Errorf("Resolve(%q) threshold %v must be negative dBFS", c.goos, p.EnergyThresholdDB)
		}
		if p.Pause <= 0 || p.NetworkTimeout <= 0 {
			t.Errorf("Resolve(%q) has zero timing fields: %+v", c.goos, p)
		}
	}
}

func TestConservativeLoosestThresholdLongestPause(t *testing.T) {
	win := Resolve("windows")
	mac := Resolve("darwin")
	lin := Resolve("linux")

	if !(win.EnergyThresholdDB > mac.EnergyThresholdDB && mac.EnergyThresholdDB > lin.EnergyThresholdDB) {
		t.Errorf("thresholds not ordered conservative > balanced > aggressive: %v %v %v",
			win.EnergyThresholdDB, mac.EnergyThresholdDB, lin.EnergyThresholdDB)
	}
	if !(win.Pause > mac.Pause && mac.Pause > lin.Pause) {
		t.Errorf("pauses not ordered: %v %v %v", win.Pause, mac.Pause, lin.Pause)
	}
}

func TestMaxUtteranceSharedAcrossTiers(t *testing.T) {
	want := 75 * time.Second
	for _, goos := range []string{"windows", "darwin", "linux"} {
		if got := Resolve(goos).MaxUtterance; got != want {
			t.Errorf("Resolve(%q).MaxUtterance = %v, want %v", goos, got, want)
		}
	}
}

func TestForTier(t *testing.T) {
	p, ok := ForTier(TierBalanced)
	if !ok || p.Tier != TierBalanced {
		t.Fatalf("ForTier(balanced) = %+v, %v", p, ok)
	}
	if _, ok := ForTier(Tier("turbo")); ok {
		t.Error("ForTier accepted an unknown tier")
	}
}
