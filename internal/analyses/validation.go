package analyses

import "filmdecks-backend/internal/shared/validate"

// DecodeRequest parses and validates a raw submission body. Every violated
// constraint is reported in a single *ValidationError.
func DecodeRequest(body []byte) (Request, error) {
	var req Request
	if err := validate.DecodeJSON(body, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// ValidateRequest checks an already decoded request.
func ValidateRequest(req Request) error {
	return validate.Struct(req)
}
