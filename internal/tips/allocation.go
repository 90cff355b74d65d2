// Package tips distributes tip pools across role buckets and employees.
package tips

import (
	"maps"

	"github.com/shopspring/decimal"
)

type Pool string

const (
	PoolLunch         Pool = "Lunch"
	PoolDinnerGeneral Pool = "Dinner_General"
	PoolDinnerServers Pool = "Dinner_Servers"
)

// Pools is the order pools are computed and reported in.
var Pools = []Pool{PoolLunch, PoolDinnerGeneral, PoolDinnerServers}

// AllocationTable holds the fraction of each pool paid to each role.
// Fractions within a pool need not add up to one; the remainder is not
// paid to anyone.
type AllocationTable struct {
	Lunch             map[string]decimal.Decimal
	DinnerGeneral     map[string]decimal.Decimal
	DinnerServers     map[string]decimal.Decimal
	ServersToPoolRate decimal.Decimal
}

func DefaultAllocation() AllocationTable {
	return AllocationTable{
		Lunch: fractions(map[string]string{
			"Busser": "0.225", "Barrista": "0.125", "Kitchen": "0.1", "Case": "0.15",
			"Register": "0.15", "Lead": "0.25", "Hostess": "0", "Runner": "0",
		}),
		DinnerGeneral: fractions(map[string]string{
			"Busser": "0.2", "Barrista": "0.13", "Kitchen": "0.12", "Case": "0.12",
			"Register": "0.18", "Lead": "0.25", "Hostess": "0.09", "Runner": "0",
		}),
		DinnerServers: fractions(map[string]string{
			"Busser": "0.25", "Barrista": "0.15", "Kitchen": "0.15", "Case": "0",
			"Register": "0.2", "Lead": "0.25", "Hostess": "0", "Runner": "0",
		}),
		ServersToPoolRate: decimal.RequireFromString("0.3"),
	}
}

func fractions(raw map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(raw))
	for role, value := range raw {
		out[role] = decimal.RequireFromString(value)
	}
	return out
}

func (a AllocationTable) Clone() AllocationTable {
	return AllocationTable{
		Lunch:             maps.Clone(a.Lunch),
		DinnerGeneral:     maps.Clone(a.DinnerGeneral),
		DinnerServers:     maps.Clone(a.DinnerServers),
		ServersToPoolRate: a.ServersToPoolRate,
	}
}

// Fractions returns the role map for a pool.
func (a AllocationTable) Fractions(pool Pool) map[string]decimal.Decimal {
	switch pool {
	case PoolLunch:
		return a.Lunch
	case PoolDinnerGeneral:
		return a.DinnerGeneral
	case PoolDinnerServers:
		return a.DinnerServers
	default:
		return nil
	}
}

// Unallocated is the part of a pool that no role receives.
func (a AllocationTable) Unallocated(pool Pool) decimal.Decimal {
	sum := decimal.Zero
	for _, f := range a.Fractions(pool) {
		sum = sum.Add(f)
	}
	return decimal.NewFromInt(1).Sub(sum)
}

// PoolTotals are the dollar amounts read from the tip summary export.
type PoolTotals struct {
	Lunch              decimal.Decimal
	DinnerGeneral      decimal.Decimal
	ServerContribution decimal.Decimal
	ServerCashCC       decimal.Decimal
}

// ServerTips maps a server's "First Last" name to the tips they reported
// directly.
type ServerTips map[string]decimal.Decimal
