// Package numbering issues product-scoped policy numbers.
//
// A Generator describes how numbers for one product look (mask, reset policy,
// upper bound, optional XOR obfuscation). Each generator owns exactly one
// counter, advanced only through CounterStore.IncrementAndGet, which applies
// period resets and overflow wraps in the same atomic step as the increment.
package numbering

import (
	"strings"
	"time"

	"policyhub/internal/core/id"
)

// ResetPolicy decides when a generator's counter starts over at 1.
type ResetPolicy string

const (
	ResetYearly  ResetPolicy = "YEARLY"
	ResetMonthly ResetPolicy = "MONTHLY"
	ResetNever   ResetPolicy = "NEVER"
)

// Valid reports whether p is a known policy.
func (p ResetPolicy) Valid() bool {
	switch p {
	case ResetYearly, ResetMonthly, ResetNever:
		return true
	}
	return false
}

// ParseResetPolicy normalizes user input ("monthly" -> MONTHLY).
// Unknown values are returned as-is so validation can report them.
func ParseResetPolicy(s string) ResetPolicy {
	return ResetPolicy(strings.ToUpper(strings.TrimSpace(s)))
}

// DefaultMaxValue is used when a generator is created without an explicit bound.
const DefaultMaxValue int64 = 999_999

// Generator is the numbering configuration of one product within a tenant.
type Generator struct {
	ID          id.ID       `db:"id" json:"id"`
	TenantID    string      `db:"tenant_id" json:"tenantId"`
	ProductCode string      `db:"product_code" json:"productCode"`
	Mask        string      `db:"mask" json:"mask"`
	ResetPolicy ResetPolicy `db:"reset_policy" json:"resetPolicy"`
	MaxValue    int64       `db:"max_value" json:"maxValue"`
	XORMask     string      `db:"xor_mask" json:"xorMask,omitempty"`
	Version     int         `db:"version" json:"version"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// ApplyDefaults fills in an omitted maxValue.
// The default is capped to what the mask can print, so "INV-####" gets 9999.
func (g *Generator) ApplyDefaults() {
	g.ProductCode = strings.TrimSpace(g.ProductCode)
	if g.MaxValue != 0 {
		return
	}
	g.MaxValue = DefaultMaxValue
	if layout, err := ParseMask(g.Mask); err == nil && layout.Capacity() < g.MaxValue {
		g.MaxValue = layout.Capacity()
	}
}

// CounterKey addresses one counter.
type CounterKey struct {
	TenantID    string
	GeneratorID id.ID
}

// String renders the key for logs and cache keys.
func (k CounterKey) String() string {
	return k.TenantID + ":" + k.GeneratorID.String()
}

// KeyOf returns the counter key of a generator.
func KeyOf(g *Generator) CounterKey {
	return CounterKey{TenantID: g.TenantID, GeneratorID: g.ID}
}

// Issued is the outcome of one successful number request.
type Issued struct {
	ProductCode string     `json:"productCode"`
	Number      string     `json:"number"`
	Value       int64      `json:"value"`
	Period      Period     `json:"period"`
	Transition  Transition `json:"transition"`
	Overflowed  bool       `json:"overflowed"`
	WrapCount   int64      `json:"wrapCount"`
	IssuedAt    time.Time  `json:"issuedAt"`
}

// Revision is a stored snapshot of a generator taken before it was updated.
type Revision struct {
	GeneratorID id.ID     `json:"generatorId"`
	Version     int       `json:"version"`
	Snapshot    Generator `json:"snapshot"`
	RecordedBy  string    `json:"recordedBy,omitempty"`
	RecordedAt  time.Time `json:"recordedAt"`
}
