package dto

import (
	"time"

	"policyhub/internal/core/apperror"
	"policyhub/internal/domain/numbering"
)

// GeneratorRequest creates, updates or validates a generator.
// On update the product code comes from the path.
type GeneratorRequest struct {
	ProductCode string `json:"productCode"`
	Mask        string `json:"mask"`
	ResetPolicy string `json:"resetPolicy"`
	MaxValue    int64  `json:"maxValue"`
	XORMask     string `json:"xorMask"`
	Version     int    `json:"version" binding:"min=0"`
}

// ToGenerator converts the request to a domain generator.
func (r GeneratorRequest) ToGenerator() *numbering.Generator {
	return &numbering.Generator{
		ProductCode: r.ProductCode,
		Mask:        r.Mask,
		ResetPolicy: numbering.ParseResetPolicy(r.ResetPolicy),
		MaxValue:    r.MaxValue,
		XORMask:     r.XORMask,
		Version:     r.Version,
	}
}

// GeneratorResponse is the public view of a generator.
// The XOR key is reported only as present or absent.
type GeneratorResponse struct {
	ID          string    `json:"id"`
	ProductCode string    `json:"productCode"`
	Mask        string    `json:"mask"`
	ResetPolicy string    `json:"resetPolicy"`
	MaxValue    int64     `json:"maxValue"`
	Obfuscated  bool      `json:"obfuscated"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromGenerator creates GeneratorResponse from numbering.Generator.
func FromGenerator(g *numbering.Generator) GeneratorResponse {
	return GeneratorResponse{
		ID:          g.ID.String(),
		ProductCode: g.ProductCode,
		Mask:        g.Mask,
		ResetPolicy: string(g.ResetPolicy),
		MaxValue:    g.MaxValue,
		Obfuscated:  g.XORMask != "",
		Version:     g.Version,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// FromGenerators converts a list.
func FromGenerators(list []*numbering.Generator) []GeneratorResponse {
	out := make([]GeneratorResponse, 0, len(list))
	for _, g := range list {
		out = append(out, FromGenerator(g))
	}
	return out
}

// ValidationResponse lists configuration problems; empty when valid.
type ValidationResponse struct {
	Valid  bool                  `json:"valid"`
	Errors []apperror.FieldError `json:"errors"`
}

// NewValidationResponse builds the response from a field error list.
func NewValidationResponse(errs apperror.FieldErrors) ValidationResponse {
	list := []apperror.FieldError(errs)
	if list == nil {
		list = []apperror.FieldError{}
	}
	return ValidationResponse{Valid: len(list) == 0, Errors: list}
}

// IssuedResponse is returned by the next-number endpoint.
type IssuedResponse struct {
	ProductCode string    `json:"productCode"`
	Number      string    `json:"number"`
	Value       int64     `json:"value"`
	Period      string    `json:"period"`
	Transition  string    `json:"transition"`
	Overflowed  bool      `json:"overflowed"`
	WrapCount   int64     `json:"wrapCount"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// FromIssued creates IssuedResponse from numbering.Issued.
func FromIssued(i *numbering.Issued) IssuedResponse {
	return IssuedResponse{
		ProductCode: i.ProductCode,
		Number:      i.Number,
		Value:       i.Value,
		Period:      i.Period.String(),
		Transition:  string(i.Transition),
		Overflowed:  i.Overflowed,
		WrapCount:   i.WrapCount,
		IssuedAt:    i.IssuedAt,
	}
}

// DecodeRequest carries a previously issued number.
type DecodeRequest struct {
	Number string `json:"number" binding:"required"`
}

// DecodeResponse reports the counter value printed in a number.
type DecodeResponse struct {
	ProductCode string `json:"productCode"`
	Number      string `json:"number"`
	Value       int64  `json:"value"`
}

// RevisionResponse is one entry of a generator's history.
type RevisionResponse struct {
	Version     int       `json:"version"`
	Mask        string    `json:"mask"`
	ResetPolicy string    `json:"resetPolicy"`
	MaxValue    int64     `json:"maxValue"`
	Obfuscated  bool      `json:"obfuscated"`
	RecordedBy  string    `json:"recordedBy,omitempty"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// FromRevisions converts history entries.
func FromRevisions(list []numbering.Revision) []RevisionResponse {
	out := make([]RevisionResponse, 0, len(list))
	for _, r := range list {
		out = append(out, RevisionResponse{
			Version:     r.Version,
			Mask:        r.Snapshot.Mask,
			ResetPolicy: string(r.Snapshot.ResetPolicy),
			MaxValue:    r.Snapshot.MaxValue,
			Obfuscated:  r.Snapshot.XORMask != "",
			RecordedBy:  r.RecordedBy,
			RecordedAt:  r.RecordedAt,
		})
	}
	return out
}
