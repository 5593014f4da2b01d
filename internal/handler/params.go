package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-organizer/internal/domain"
)

// pathUUID binds a UUID path parameter, writing a 400 when it does not parse.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		badRequest(w, "invalid "+name+": "+err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// queryInt binds an optional integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		badRequest(w, "invalid "+name+": "+err.Error())
		return nil, false
	}
	return v, true
}

// dateToDay converts an optional wire date to a calendar day.
func dateToDay(d *openapi_types.Date) *domain.Day {
	if d == nil {
		return nil
	}
	day := domain.DayOf(d.Time, time.UTC)
	return &day
}

// dayToDate converts an optional calendar day to a wire date.
func dayToDate(d *domain.Day) *openapi_types.Date {
	if d == nil {
		return nil
	}
	return &openapi_types.Date{Time: d.Time()}
}

// dateRange is the JSON form of a closed day range.
type dateRange struct {
	Start openapi_types.Date `json:"start"`
	End   openapi_types.Date `json:"end"`
}

func rangeToResponse(r *domain.DateRange) *dateRange {
	if r == nil {
		return nil
	}
	return &dateRange{
		Start: openapi_types.Date{Time: r.Start.Time()},
		End:   openapi_types.Date{Time: r.End.Time()},
	}
}
