package dto

// EstimateResponse is the success envelope shared by the HTTP and line transports.
type EstimateResponse struct {
	Success bool `json:"success"`
	Estimate
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func NewError(err error, code string) ErrorResponse {
	return ErrorResponse{Success: false, Error: err.Error(), Code: code}
}
