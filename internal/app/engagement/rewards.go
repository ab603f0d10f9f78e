package engagement

import "github.com/stakeday/stakeday/internal/domain"

// RewardView is a reward with its unlock state at the current streak.
type RewardView struct {
	domain.RewardItem
	Unlocked  bool `json:"unlocked"`
	DaysToGo  int  `json:"days_to_go"`
	Claimable bool `json:"claimable"`
}

// Rewards annotates each reward with whether the streak has reached it.
func Rewards(rewards []domain.RewardItem, streak int) []RewardView {
	out := make([]RewardView, 0, len(rewards))
	for _, r := range rewards {
		v := RewardView{RewardItem: r, Unlocked: r.Unlocked(streak)}
		if !v.Unlocked {
			v.DaysToGo = r.UnlockStreak - streak
		}
		v.Claimable = v.Unlocked && !r.Claimed
		out = append(out, v)
	}
	return out
}

// ClaimReward marks reward id as claimed. Claiming an already-claimed
// reward succeeds without change; a locked one fails.
func ClaimReward(rewards []domain.RewardItem, id string, streak int) ([]domain.RewardItem, error) {
	for i, r := range rewards {
		if r.ID != id {
			continue
		}
		if r.Claimed {
			return rewards, nil
		}
		if !r.Unlocked(streak) {
			return rewards, domain.ErrRewardLocked
		}
		out := make([]domain.RewardItem, len(rewards))
		copy(out, rewards)
		out[i].Claimed = true
		return out, nil
	}
	return rewards, domain.ErrRewardNotFound
}
