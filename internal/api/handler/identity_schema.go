package handler

import "time"

// --- Request / Response types ---

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type addressRequest struct {
	Street  string `json:"street"   validate:"max=200"`
	City    string `json:"city"     validate:"max=100"`
	State   string `json:"state"    validate:"max=100"`
	ZipCode string `json:"zip_code" validate:"max=20"`
	Country string `json:"country"  validate:"max=100"`
}

type updateProfileRequest struct {
	Name     *string         `json:"name,omitempty"`
	Phone    *string         `json:"phone,omitempty"`
	Address  *addressRequest `json:"address,omitempty"`
	Password *string         `json:"password,omitempty"`
}

type listIdentitiesQuery struct {
	Page  int `query:"page"  validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=0"`
}

// Response-only types owned by the transport layer, kept apart from the
// domain so the JSON contract does not follow internal changes.

// userSummary is the safe identity subset returned with a token.
type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type addressResponse struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

type profileResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      string           `json:"role"`
	Phone     string           `json:"phone,omitempty"`
	Address   *addressResponse `json:"address,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type authResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

type profileEnvelope struct {
	Success bool            `json:"success"`
	User    profileResponse `json:"user"`
}

type dashboardResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    userSummary `json:"user"`
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listIdentitiesResponse struct {
	Success    bool              `json:"success"`
	Data       []profileResponse `json:"data"`
	Pagination pagination        `json:"pagination"`
}

// errorResponse documents the error envelope rendered by the central
// error handler.
type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"invalid credentials"`
}
