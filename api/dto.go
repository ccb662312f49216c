/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures that exist only at the HTTP boundary. Most
  operations decode straight into the folio request types (folio/requests.go)
  and encode the domain results as-is; the types here cover the bodies that
  have no domain counterpart.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Struct validation happens in the folio service. Handlers only check what
  the service cannot see (path ids, query flags, headers).

SEE ALSO:
  - handlers.go: Uses these types
  - folio/requests.go: Operation request and result types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/hotel"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RoomStatusRequest is the body of PUT /rooms/{id}/status.
type RoomStatusRequest struct {
	Status string `json:"status"`
}

// TaxSettingsRequest is the body of PUT /settings/tax. Rate is a percentage.
type TaxSettingsRequest struct {
	Enabled bool            `json:"is_enabled"`
	Rate    decimal.Decimal `json:"rate"`
}

// TaxSettingsDTO is returned by the tax settings endpoints.
type TaxSettingsDTO struct {
	Enabled bool          `json:"is_enabled"`
	Rate    string        `json:"rate"`
	Version hotel.Version `json:"version"`
}

func toTaxSettingsDTO(s hotel.TaxSettings, v hotel.Version) TaxSettingsDTO {
	return TaxSettingsDTO{Enabled: s.Enabled, Rate: s.Rate.String(), Version: v}
}

// VersionResponse acknowledges a write that returns no entity.
type VersionResponse struct {
	Status  string        `json:"status"`
	Version hotel.Version `json:"version"`
}

// EntityResponse wraps a created or updated entity with the committed version.
type EntityResponse[T any] struct {
	Data    T             `json:"data"`
	Version hotel.Version `json:"version"`
}

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
