package dto

type ErrorResponse struct {
	Code   int                 `json:"code"`
	Detail string              `json:"detail"`
	Fields map[string][]string `json:"fields,omitempty"`
}
