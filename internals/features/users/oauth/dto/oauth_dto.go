package dto

import (
	"time"

	userModel "kursusku_backend/internals/features/users/user/model"
)

type AuthorizeURLResponse struct {
	URL string `json:"url"`
}

type OAuthAccountResponse struct {
	Provider string    `json:"provider"`
	Email    string    `json:"email,omitempty"`
	LinkedAt time.Time `json:"linked_at"`
}

func FromAccount(a *userModel.OAuthAccountModel) OAuthAccountResponse {
	return OAuthAccountResponse{Provider: a.Provider, Email: a.Email, LinkedAt: a.LinkedAt}
}

func FromAccounts(rows []userModel.OAuthAccountModel) []OAuthAccountResponse {
	out := make([]OAuthAccountResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromAccount(&rows[i]))
	}
	return out
}
