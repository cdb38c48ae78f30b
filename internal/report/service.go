// Package report aggregates the order ledger into periodic sales buckets.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/annapurna-pos/backend-billing/internal/money"
)

// Period selects the bucketing granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ErrInvalidPeriod is returned for a period outside the closed set.
var ErrInvalidPeriod = errors.New("report: period must be daily, weekly or monthly")

// ParsePeriod validates a raw period selector.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// OrderTotal is one ledger row as seen by the reporter.
type OrderTotal struct {
	CreatedAt time.Time   `json:"createdAt"`
	Total     money.Cents `json:"total"`
}

// Bucket aggregates orders sharing one period key. Buckets are computed on
// demand and never persisted.
type Bucket struct {
	PeriodKey  string      `json:"period_key"`
	TotalSales money.Cents `json:"total_sales"`
	OrderCount int         `json:"order_count"`
}

// Querier defines the ledger access required for reporting.
type Querier interface {
	ListOrderTotals(ctx context.Context) ([]OrderTotal, error)
}

// Service computes sales buckets, optionally caching results in Redis.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
}

// Sales returns buckets for the period sorted by ascending period key.
// Periods with no orders are omitted.
func (s *Service) Sales(ctx context.Context, period Period) ([]Bucket, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	key := "rp:sales:" + string(period)
	if buckets, ok := s.fromCache(ctx, key); ok {
		return buckets, nil
	}
	rows, err := s.Q.ListOrderTotals(ctx)
	if err != nil {
		return nil, err
	}
	buckets := Aggregate(rows, period)
	s.store(ctx, key, buckets)
	return buckets, nil
}

// Aggregate groups ledger rows into sorted buckets.
func Aggregate(rows []OrderTotal, period Period) []Bucket {
	grouped := make(map[string]*Bucket)
	for _, row := range rows {
		key := BucketKey(period, row.CreatedAt)
		b, ok := grouped[key]
		if !ok {
			b = &Bucket{PeriodKey: key}
			grouped[key] = b
		}
		b.TotalSales += row.Total
		b.OrderCount++
	}
	buckets := make([]Bucket, 0, len(grouped))
	for _, b := range grouped {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].PeriodKey < buckets[j].PeriodKey })
	return buckets
}

// BucketKey derives the period key from an order timestamp. Weekly keys use
// the ISO week number, zero-padded ("2024-W01").
func BucketKey(period Period, t time.Time) string {
	switch period {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func (s *Service) fromCache(ctx context.Context, key string) ([]Bucket, bool) {
	if s.R == nil || s.TTL <= 0 {
		return nil, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var buckets []Bucket
	if err := json.Unmarshal(data, &buckets); err != nil {
		return nil, false
	}
	return buckets, true
}

func (s *Service) store(ctx context.Context, key string, buckets []Bucket) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(buckets)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
