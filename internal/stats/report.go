package stats

import (
	"context"

	"github.com/verte-zerg/fermata/internal/model"
	"github.com/verte-zerg/fermata/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Rounds []model.RoundAggregate
	Items  []model.ItemStat
}

// BuildReport loads and prepares data for stats rendering. universe
// lists the mode's items so never-attempted items appear with defaults.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig, universe []string) (Report, error) {
	rounds, err := st.ListRounds(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(rounds) > cfg.Last {
		rounds = rounds[len(rounds)-cfg.Last:]
	}

	stored, err := st.LoadItemStats(ctx, cfg.Mode)
	if err != nil {
		return Report{}, err
	}
	items := make([]model.ItemStat, 0, len(universe))
	for _, id := range universe {
		if stat, ok := stored[id]; ok {
			items = append(items, stat)
		} else {
			items = append(items, model.ItemStat{Item: id})
		}
	}

	return Report{Rounds: rounds, Items: items}, nil
}
