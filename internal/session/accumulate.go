package session

import (
	"time"

	"github.com/theirongolddev/wattwatch/internal/energy"
	"github.com/theirongolddev/wattwatch/internal/model"
)

// Accumulate folds one message's token delta into st and recomputes the
// estimate over the cumulative count with the current model id.
func Accumulate(st *model.SessionStats, delta model.TokenCount, modelID string, r energy.Resolver, rate float64, at time.Time) {
	st.Tokens = st.Tokens.Add(delta)
	st.ModelID = model.MergeModelID(st.ModelID, modelID)

	res := energy.Estimate(r, st.Tokens, st.ModelID, rate)
	st.EnergyWh = res.EnergyWh
	st.Cost = res.Cost
	st.Updates++
	st.UpdatedAt = at
}
