package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"visitflow/internal/visitor/models"
	dErrors "visitflow/pkg/domain-errors"
)

// VisitorResponse is the JSON shape of one visitor.
type VisitorResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Company   string     `json:"company"`
	Status    string     `json:"status"`
	VisitDate string     `json:"visitDate"`
	CreatedAt time.Time  `json:"createdAt"`
	ArrivedAt *time.Time `json:"arrivedAt,omitempty"`
	LeftAt    *time.Time `json:"leftAt,omitempty"`
}

func toVisitorResponse(v models.Visitor) VisitorResponse {
	return VisitorResponse{
		ID:        v.ID.String(),
		Name:      v.Name,
		Company:   v.Company,
		Status:    string(v.Status),
		VisitDate: v.VisitDate.Format(time.DateOnly),
		CreatedAt: v.CreatedAt,
		ArrivedAt: v.ArrivedAt,
		LeftAt:    v.LeftAt,
	}
}

func toVisitorResponses(vs []models.Visitor) []VisitorResponse {
	out := make([]VisitorResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVisitorResponse(v))
	}
	return out
}

type errorResponse struct {
	Error      string              `json:"error"`
	Message    string              `json:"message"`
	Violations []dErrors.Violation `json:"violations,omitempty"`
}

// writeError maps domain error codes onto HTTP statuses with a consistent
// JSON envelope. Internal errors stay opaque.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeValidationFailed, dErrors.CodeInvalidPayload:
		status = http.StatusBadRequest
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeInvalidState, dErrors.CodeConflict, dErrors.CodeInvalidTransition:
		status = http.StatusConflict
	case dErrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	}

	resp := errorResponse{Error: string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		resp.Message = de.Message
		resp.Violations = de.Violations
	} else {
		resp.Message = "internal error"
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
