package dto

type RefreshTokenRequest struct {
	Refresh string `json:"refresh"`
}

// AccessResponse is the refresh result; the refresh token is never rotated.
type AccessResponse struct {
	Access string `json:"access"`
}
