package offers

import (
	"testing"
	"time"
)

func TestBonusFor(t *testing.T) {
	cases := []struct {
		name    string
		offer   Offer
		deposit int64
		want    int64
	}{
		{"percent only", Offer{Percent: 100}, 500, 500},
		{"percent plus flat", Offer{Percent: 50, FlatCents: 100}, 1000, 600},
		{"capped at max_credit", Offer{Percent: 100, MaxCreditCents: 300}, 500, 300},
		{"flat only", Offer{FlatCents: 250}, 1000, 250},
		{"zero offer", Offer{}, 1000, 0},
		{"negative flat floors at zero", Offer{FlatCents: -100}, 50, 0},
		{"rounds down on odd percent", Offer{Percent: 33}, 101, 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.offer.BonusFor(tc.deposit); got != tc.want {
				t.Fatalf("BonusFor(%d) = %d, want %d", tc.deposit, got, tc.want)
			}
		})
	}
}

func TestValidFor(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		offer   Offer
		deposit int64
		want    bool
	}{
		{"no constraints", Offer{}, 100, true},
		{"deposit meets minimum", Offer{MinDepositCents: 500}, 500, true},
		{"deposit below minimum", Offer{MinDepositCents: 500}, 499, false},
		{"not expired yet", Offer{ExpiresAt: now.Add(time.Hour)}, 100, true},
		{"expired", Offer{ExpiresAt: now.Add(-time.Hour)}, 100, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.offer.ValidFor(tc.deposit, now); got != tc.want {
				t.Fatalf("ValidFor(%d) = %v, want %v", tc.deposit, got, tc.want)
			}
		})
	}
}
