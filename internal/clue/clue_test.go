package clue

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/babylon/sim-engine/internal/model"
)

func testConfig(duration int, outcome bool) model.GameConfig {
	return model.GameConfig{
		Outcome:            outcome,
		NumAgents:          10,
		Duration:           duration,
		LiquidityParameter: decimal.NewFromInt(150),
		InsiderPercentage:  0.25,
	}
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		duration, want int
	}{
		{30, 21},
		{10, 7},
		{1, 1},
		{3, 2},
	}
	for _, tt := range tests {
		if got := PoolSize(tt.duration); got != tt.want {
			t.Errorf("PoolSize(%d) = %d, want %d", tt.duration, got, tt.want)
		}
	}
}

func TestBuildNetwork_DaysWithinHorizon(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	clues := BuildNetwork(testConfig(30, true), rng)

	if len(clues) != 21 {
		t.Fatalf("expected 21 clues for 30 days, got %d", len(clues))
	}
	prevDay := 0
	for _, c := range clues {
		if c.Day < 1 || c.Day > 30 {
			t.Errorf("clue %s has day %d outside 1..30", c.ID, c.Day)
		}
		if c.Day < prevDay {
			t.Errorf("clue days must be non-decreasing, got %d after %d", c.Day, prevDay)
		}
		prevDay = c.Day
	}
}

func TestBuildNetwork_ReliabilityBands(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	clues := BuildNetwork(testConfig(30, true), rng)

	for _, c := range clues {
		var want float64
		switch {
		case c.Day <= 10:
			want = EarlyReliability
		case c.Day <= 20:
			want = MidReliability
		default:
			want = LateReliability
		}
		if c.Reliability != want {
			t.Errorf("clue %s day %d: reliability %v, want %v", c.ID, c.Day, c.Reliability, want)
		}
	}
}

func TestBuildNetwork_ReliabilityMonotoneInDay(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	clues := BuildNetwork(testConfig(30, false), rng)

	for i := 1; i < len(clues); i++ {
		if clues[i].Day >= clues[i-1].Day && clues[i].Reliability < clues[i-1].Reliability {
			t.Errorf("reliability must not decrease with day: %v (day %d) after %v (day %d)",
				clues[i].Reliability, clues[i].Day, clues[i-1].Reliability, clues[i-1].Day)
		}
	}
}

func TestBuildNetwork_Deterministic(t *testing.T) {
	a := BuildNetwork(testConfig(30, true), rand.New(rand.NewSource(42)))
	b := BuildNetwork(testConfig(30, true), rand.New(rand.NewSource(42)))

	if !reflect.DeepEqual(a, b) {
		t.Error("identical seeds must produce identical clue pools")
	}
}

// Reliability law: over a large sample, the fraction of signals matching
// the outcome converges on the reliability. Tolerance band, not equality.
func TestDrawSignal_ReliabilityLaw(t *testing.T) {
	const n = 10000
	rng := rand.New(rand.NewSource(7))

	for _, r := range []float64{0.70, 0.80, 0.90} {
		matches := 0
		for i := 0; i < n; i++ {
			if drawSignal(rng, true, r) {
				matches++
			}
		}
		got := float64(matches) / n
		if math.Abs(got-r) > 0.02 {
			t.Errorf("reliability %v: matched fraction %v outside tolerance", r, got)
		}
	}
}

// --- Distributor tests ---

func agents(n int) (insiders, all []string) {
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		all = append(all, id)
		if i < n/4 {
			insiders = append(insiders, id)
		}
	}
	return insiders, all
}

func TestDistributor_InsidersNeverLater(t *testing.T) {
	insiders, all := agents(8)
	clues := []model.Clue{
		{ID: "clue-001", Day: 2, Reliability: 0.7, Signal: true, Audience: model.AudienceInsider},
	}
	d := NewDistributor(clues, 10)
	rng := rand.New(rand.NewSource(1))

	insiderDay := 0
	outsiderDay := 0
	for day := 1; day <= 10; day++ {
		for _, dist := range d.Release(day, insiders, all, rng) {
			for _, id := range dist.Recipients {
				isInsider := false
				for _, ins := range insiders {
					if ins == id {
						isInsider = true
					}
				}
				if isInsider && insiderDay == 0 {
					insiderDay = day
				}
				if !isInsider && outsiderDay == 0 {
					outsiderDay = day
				}
			}
		}
	}

	if insiderDay == 0 || outsiderDay == 0 {
		t.Fatalf("clue never reached both groups: insider day %d, outsider day %d", insiderDay, outsiderDay)
	}
	if insiderDay > outsiderDay {
		t.Errorf("insiders saw the clue on day %d, after outsiders on day %d", insiderDay, outsiderDay)
	}
}

func TestDistributor_NoDoubleDelivery(t *testing.T) {
	insiders, all := agents(8)
	clues := []model.Clue{
		{ID: "clue-001", Day: 3, Reliability: 0.8, Signal: false, Audience: model.AudienceInsider},
	}
	d := NewDistributor(clues, 10)
	rng := rand.New(rand.NewSource(5))

	delivered := make(map[string]int)
	for day := 1; day <= 10; day++ {
		for _, dist := range d.Release(day, insiders, all, rng) {
			for _, id := range dist.Recipients {
				delivered[id]++
			}
		}
	}

	for id, count := range delivered {
		if count != 1 {
			t.Errorf("agent %s received the clue %d times", id, count)
		}
	}
	if len(delivered) != len(all) {
		t.Errorf("expected all %d agents to receive the clue, got %d", len(all), len(delivered))
	}
}

func TestDistributor_FinalDayReachesEveryoneAtOnce(t *testing.T) {
	insiders, all := agents(8)
	clues := []model.Clue{
		{ID: "clue-001", Day: 10, Reliability: 0.9, Signal: true, Audience: model.AudienceInsider},
	}
	d := NewDistributor(clues, 10)
	rng := rand.New(rand.NewSource(9))

	dists := d.Release(10, insiders, all, rng)
	if len(dists) != 1 {
		t.Fatalf("expected 1 distribution on the final day, got %d", len(dists))
	}
	if len(dists[0].Recipients) != len(all) {
		t.Errorf("final-day clue should reach all %d agents, got %d", len(all), len(dists[0].Recipients))
	}
}

func TestDistributor_BroadAudienceImmediate(t *testing.T) {
	insiders, all := agents(8)
	clues := []model.Clue{
		{ID: "clue-001", Day: 4, Reliability: 0.7, Signal: true, Audience: model.AudienceAll},
	}
	d := NewDistributor(clues, 10)
	rng := rand.New(rand.NewSource(3))

	dists := d.Release(4, insiders, all, rng)
	if len(dists) != 1 || len(dists[0].Recipients) != len(all) {
		t.Fatalf("broad-audience clue should reach everyone on its day")
	}
}
