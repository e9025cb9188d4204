package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Policy 거래/결제/정산 운영 정책. 기본값은 코드에 있고 POLICY_FILE(TOML)로 덮어쓴다.
type Policy struct {
	Used         UsedPolicy         `toml:"used"`
	BidToken     BidTokenPolicy     `toml:"bid_token"`
	Refund       RefundPolicy       `toml:"refund"`
	Partner      PartnerPolicy      `toml:"partner"`
	Verification VerificationPolicy `toml:"verification"`
	GroupBuy     GroupBuyPolicy     `toml:"group_buy"`
}

type UsedPolicy struct {
	MaxActiveListings    int   `toml:"max_active_listings"`
	MaxOffersPerBuyer    int   `toml:"max_offers_per_buyer"`
	DeletePenaltyHours   int   `toml:"delete_penalty_hours"`
	PhoneMaxPrice        int64 `toml:"phone_max_price"`
	ElectronicsMinPrice  int64 `toml:"electronics_min_price"`
	ElectronicsMaxPrice  int64 `toml:"electronics_max_price"`
	MinDescriptionLength int   `toml:"min_description_length"`
	MaxImages            int   `toml:"max_images"`
}

type BidTokenPolicy struct {
	UnitPrice         int64 `toml:"unit_price"`
	SubscriptionPrice int64 `toml:"subscription_price"`
	SubscriptionDays  int   `toml:"subscription_days"`
	LowTokenThreshold int64 `toml:"low_token_threshold"`
	MaxBulkSellers    int   `toml:"max_bulk_sellers"`
}

type RefundPolicy struct {
	WindowDays int `toml:"window_days"`
}

type PartnerPolicy struct {
	DefaultCommissionRate   float64 `toml:"default_commission_rate"`
	MinimumSettlementAmount int64   `toml:"minimum_settlement_amount"`
	ReferralBaseURL         string  `toml:"referral_base_url"`
}

type VerificationPolicy struct {
	CodeTTLMinutes     int `toml:"code_ttl_minutes"`
	MaxAttempts        int `toml:"max_attempts"`
	PhoneHourlyLimit   int `toml:"phone_hourly_limit"`
	IPHourlyLimit      int `toml:"ip_hourly_limit"`
	ResendCooldownSecs int `toml:"resend_cooldown_seconds"`
	BusinessCacheHours int `toml:"business_cache_hours"`
}

type GroupBuyPolicy struct {
	MaxDurationHours        int `toml:"max_duration_hours"`
	VotingHours             int `toml:"voting_hours"`
	SellerConfirmationHours int `toml:"seller_confirmation_hours"`
}

func DefaultPolicy() *Policy {
	return &Policy{
		Used: UsedPolicy{
			MaxActiveListings:    5,
			MaxOffersPerBuyer:    5,
			DeletePenaltyHours:   6,
			PhoneMaxPrice:        9_900_000,
			ElectronicsMinPrice:  1_000,
			ElectronicsMaxPrice:  99_000_000,
			MinDescriptionLength: 10,
			MaxImages:            10,
		},
		BidToken: BidTokenPolicy{
			UnitPrice:         1990,
			SubscriptionPrice: 59000,
			SubscriptionDays:  30,
			LowTokenThreshold: 5,
			MaxBulkSellers:    100,
		},
		Refund: RefundPolicy{
			WindowDays: 7,
		},
		Partner: PartnerPolicy{
			DefaultCommissionRate:   30.00,
			MinimumSettlementAmount: 50000,
			ReferralBaseURL:         "https://dungjimarket.com/join",
		},
		Verification: VerificationPolicy{
			CodeTTLMinutes:     3,
			MaxAttempts:        5,
			PhoneHourlyLimit:   5,
			IPHourlyLimit:      10,
			ResendCooldownSecs: 60,
			BusinessCacheHours: 24,
		},
		GroupBuy: GroupBuyPolicy{
			MaxDurationHours:        48,
			VotingHours:             12,
			SellerConfirmationHours: 24,
		},
	}
}

// LoadPolicy 파일 경로가 비어 있으면 기본 정책을 반환한다.
// 파일에 없는 키는 기본값이 유지된다.
func LoadPolicy(path string) (*Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy file: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(policy); err != nil {
		return nil, fmt.Errorf("decode policy file: %w", err)
	}
	return policy, nil
}

func (p UsedPolicy) DeletePenalty() time.Duration {
	return time.Duration(p.DeletePenaltyHours) * time.Hour
}

func (p VerificationPolicy) CodeTTL() time.Duration {
	return time.Duration(p.CodeTTLMinutes) * time.Minute
}

func (p VerificationPolicy) ResendCooldown() time.Duration {
	return time.Duration(p.ResendCooldownSecs) * time.Second
}

func (p VerificationPolicy) BusinessCacheTTL() time.Duration {
	return time.Duration(p.BusinessCacheHours) * time.Hour
}
