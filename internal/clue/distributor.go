package clue

import (
	"math/rand"

	"github.com/babylon/sim-engine/internal/model"
)

// Distribution is one release of a clue to a set of agents. Recipients are
// listed in ascending agent order so event logs stay deterministic.
type Distribution struct {
	Clue       model.Clue
	Recipients []string
}

// Distributor tracks the mutable clue → agents-who-have-seen-it relation.
// The clue pool itself stays immutable; only visibility changes by day.
//
// Release policy: a clue tagged for insiders goes to a random non-empty
// subset of insiders on its due day, then to every remaining agent the next
// day. Clues tagged for everyone, and any clue due on the final day, reach
// the whole population immediately — insiders never see a clue later than
// outsiders.
type Distributor struct {
	clues    []model.Clue
	seen     map[string]map[string]bool // clue ID → agent IDs
	duration int
}

// NewDistributor creates a distributor over an immutable clue pool.
func NewDistributor(clues []model.Clue, duration int) *Distributor {
	seen := make(map[string]map[string]bool, len(clues))
	for _, c := range clues {
		seen[c.ID] = make(map[string]bool)
	}
	return &Distributor{clues: clues, seen: seen, duration: duration}
}

// Release computes the day's distributions. insiders and all must be in
// ascending agent order; the same rng that drives the rest of the game is
// used for insider subset selection, keeping runs reproducible.
func (d *Distributor) Release(day int, insiders, all []string, rng *rand.Rand) []Distribution {
	var out []Distribution

	for _, c := range d.clues {
		switch {
		case c.Day == day && c.Audience == model.AudienceInsider && day < d.duration:
			subset := d.insiderSubset(insiders, rng)
			if dist := d.deliver(c, subset); dist != nil {
				out = append(out, *dist)
			}

		case c.Day == day:
			// Broad-audience clue, or a clue due on the final day with no
			// next day left for the spread.
			if dist := d.deliver(c, all); dist != nil {
				out = append(out, *dist)
			}

		case c.Day == day-1 && c.Audience == model.AudienceInsider:
			// Insider clue spreading to the general population.
			if dist := d.deliver(c, all); dist != nil {
				out = append(out, *dist)
			}
		}
	}

	return out
}

// HasSeen reports whether an agent has received a clue.
func (d *Distributor) HasSeen(clueID, agentID string) bool {
	return d.seen[clueID][agentID]
}

// insiderSubset picks a random non-empty subset of insiders, preserving
// ascending order.
func (d *Distributor) insiderSubset(insiders []string, rng *rand.Rand) []string {
	if len(insiders) == 0 {
		return nil
	}

	var subset []string
	for _, id := range insiders {
		if rng.Float64() < 0.6 {
			subset = append(subset, id)
		}
	}
	if len(subset) == 0 {
		subset = []string{insiders[rng.Intn(len(insiders))]}
	}
	return subset
}

// deliver marks recipients as having seen the clue, skipping agents who
// already have it, and returns the distribution (nil when nobody is new).
func (d *Distributor) deliver(c model.Clue, agents []string) *Distribution {
	var recipients []string
	for _, id := range agents {
		if d.seen[c.ID][id] {
			continue
		}
		d.seen[c.ID][id] = true
		recipients = append(recipients, id)
	}
	if len(recipients) == 0 {
		return nil
	}
	return &Distribution{Clue: c, Recipients: recipients}
}
