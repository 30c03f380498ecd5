package model

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	IsError bool   `json:"isError"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	AccessToken string     `json:"accessToken"`
	Roles       []string   `json:"roles"`
	User        PublicUser `json:"user"`
}

type RefreshResponse struct {
	AccessToken string   `json:"accessToken"`
	Roles       []string `json:"roles"`
}

type UserResponse struct {
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
}

type NoteResponse struct {
	Message string `json:"message"`
	Note    Note   `json:"note"`
}
