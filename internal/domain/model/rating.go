package model

// Rating is a player's paired-comparison skill belief. It is rebuilt from
// the full round history on demand and never persisted.
type Rating struct {
	Mu    float64
	Sigma float64
}

// Conservative returns mu minus three sigma, the uncertainty-penalized
// estimate used for public leaderboard ordering.
func (r Rating) Conservative() float64 {
	return r.Mu - 3*r.Sigma
}
