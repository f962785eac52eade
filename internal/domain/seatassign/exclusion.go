package seatassign

import "context"

// MultiSource は複数の ExclusionSource を合成する
type MultiSource []ExclusionSource

// ExcludedSeats は全ソースの除外座席を統合して返す
func (m MultiSource) ExcludedSeats(ctx context.Context, showID int64) (NumberSet, error) {
	merged := make(NumberSet)
	for _, source := range m {
		set, err := source.ExcludedSeats(ctx, showID)
		if err != nil {
			return nil, err
		}
		merged.Merge(set)
	}
	return merged, nil
}

var _ ExclusionSource = (MultiSource)(nil)
