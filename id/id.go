// Package id defines TypeID-based identity types for all ledger entities.
//
// Every entity uses a single ID struct with a prefix that identifies the
// entity type. IDs are K-sortable (UUIDv7-based), globally unique, and
// URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all ledger entity types.
const (
	PrefixParty       Prefix = "party" // Customer or supplier
	PrefixObligation  Prefix = "obl"   // Charge/invoice posting
	PrefixPayment     Prefix = "pay"   // Payment posting
	PrefixAllocation  Prefix = "alc"   // Payment-to-obligation allocation
	PrefixLoan        Prefix = "loan"  // Loan account
	PrefixEntry       Prefix = "amrt"  // Amortization entry
	PrefixPenalty     Prefix = "pen"   // Amortization penalty
	PrefixSavings     Prefix = "sav"   // Savings account
	PrefixMovement    Prefix = "smv"   // Savings movement (deposit/withdrawal/credit)
	PrefixTimeDeposit Prefix = "tdp"   // Time deposit
	PrefixShare       Prefix = "shr"   // Share capital account
	PrefixWallet      Prefix = "wal"   // Restricted-use wallet
)

// ID is the primary identifier type for all ledger entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "obl_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases per entity
// ──────────────────────────────────────────────────

// PartyID is a type-safe identifier for parties (prefix: "party").
type PartyID = ID

// ObligationID is a type-safe identifier for obligations (prefix: "obl").
type ObligationID = ID

// PaymentID is a type-safe identifier for payments (prefix: "pay").
type PaymentID = ID

// AllocationID is a type-safe identifier for allocations (prefix: "alc").
type AllocationID = ID

// LoanID is a type-safe identifier for loan accounts (prefix: "loan").
type LoanID = ID

// EntryID is a type-safe identifier for amortization entries (prefix: "amrt").
type EntryID = ID

// PenaltyID is a type-safe identifier for penalties (prefix: "pen").
type PenaltyID = ID

// SavingsID is a type-safe identifier for savings accounts (prefix: "sav").
type SavingsID = ID

// MovementID is a type-safe identifier for savings movements (prefix: "smv").
type MovementID = ID

// TimeDepositID is a type-safe identifier for time deposits (prefix: "tdp").
type TimeDepositID = ID

// ShareID is a type-safe identifier for share accounts (prefix: "shr").
type ShareID = ID

// WalletID is a type-safe identifier for wallets (prefix: "wal").
type WalletID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewPartyID generates a new unique party ID.
func NewPartyID() ID { return New(PrefixParty) }

// NewObligationID generates a new unique obligation ID.
func NewObligationID() ID { return New(PrefixObligation) }

// NewPaymentID generates a new unique payment ID.
func NewPaymentID() ID { return New(PrefixPayment) }

// NewAllocationID generates a new unique allocation ID.
func NewAllocationID() ID { return New(PrefixAllocation) }

// NewLoanID generates a new unique loan ID.
func NewLoanID() ID { return New(PrefixLoan) }

// NewEntryID generates a new unique amortization entry ID.
func NewEntryID() ID { return New(PrefixEntry) }

// NewPenaltyID generates a new unique penalty ID.
func NewPenaltyID() ID { return New(PrefixPenalty) }

// NewSavingsID generates a new unique savings account ID.
func NewSavingsID() ID { return New(PrefixSavings) }

// NewMovementID generates a new unique savings movement ID.
func NewMovementID() ID { return New(PrefixMovement) }

// NewTimeDepositID generates a new unique time deposit ID.
func NewTimeDepositID() ID { return New(PrefixTimeDeposit) }

// NewShareID generates a new unique share account ID.
func NewShareID() ID { return New(PrefixShare) }

// NewWalletID generates a new unique wallet ID.
func NewWalletID() ID { return New(PrefixWallet) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParsePartyID parses a string and validates the "party" prefix.
func ParsePartyID(s string) (ID, error) { return ParseWithPrefix(s, PrefixParty) }

// ParseObligationID parses a string and validates the "obl" prefix.
func ParseObligationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixObligation) }

// ParsePaymentID parses a string and validates the "pay" prefix.
func ParsePaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPayment) }

// ParseLoanID parses a string and validates the "loan" prefix.
func ParseLoanID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLoan) }

// ParsePenaltyID parses a string and validates the "pen" prefix.
func ParsePenaltyID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPenalty) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
