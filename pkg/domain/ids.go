// Package domain holds the typed identifiers shared across features.
//
// IDs are distinct uuid wrappers so a CompanyID can never be passed where a
// RoundID is expected. Parse helpers enforce the invariant that IDs must be
// valid, non-empty, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "raisegate/pkg/domain-errors"
)

type (
	// CompanyID identifies a company record.
	CompanyID uuid.UUID
	// RoundID identifies a funding round.
	RoundID uuid.UUID
	// AuthorisationID identifies an agent authorisation grant.
	AuthorisationID uuid.UUID
	// ResultID identifies a persisted eligibility evaluation.
	ResultID uuid.UUID
)

func (id CompanyID) String() string       { return uuid.UUID(id).String() }
func (id RoundID) String() string         { return uuid.UUID(id).String() }
func (id AuthorisationID) String() string { return uuid.UUID(id).String() }
func (id ResultID) String() string        { return uuid.UUID(id).String() }

func (id CompanyID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RoundID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id AuthorisationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ResultID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// The IDs marshal as their canonical string form, not as raw uuid bytes.

func (id CompanyID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id RoundID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id AuthorisationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ResultID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }

func (id *CompanyID) UnmarshalText(b []byte) error {
	parsed, err := ParseCompanyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RoundID) UnmarshalText(b []byte) error {
	parsed, err := ParseRoundID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AuthorisationID) UnmarshalText(b []byte) error {
	parsed, err := ParseAuthorisationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ResultID) UnmarshalText(b []byte) error {
	parsed, err := ParseResultID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewCompanyID generates a fresh CompanyID.
func NewCompanyID() CompanyID { return CompanyID(uuid.New()) }

// NewRoundID generates a fresh RoundID.
func NewRoundID() RoundID { return RoundID(uuid.New()) }

// NewAuthorisationID generates a fresh AuthorisationID.
func NewAuthorisationID() AuthorisationID { return AuthorisationID(uuid.New()) }

// NewResultID generates a fresh ResultID.
func NewResultID() ResultID { return ResultID(uuid.New()) }

// ParseCompanyID parses and validates a company ID from its string form.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s, "company id")
	return CompanyID(u), err
}

// ParseRoundID parses and validates a funding round ID from its string form.
func ParseRoundID(s string) (RoundID, error) {
	u, err := parseUUID(s, "round id")
	return RoundID(u), err
}

// ParseAuthorisationID parses and validates an authorisation ID from its string form.
func ParseAuthorisationID(s string) (AuthorisationID, error) {
	u, err := parseUUID(s, "authorisation id")
	return AuthorisationID(u), err
}

// ParseResultID parses and validates an eligibility result ID from its string form.
func ParseResultID(s string) (ResultID, error) {
	u, err := parseUUID(s, "result id")
	return ResultID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
