// Package transport defines the auth API request and response shapes.
package transport

type RegisterRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=9"`
	Password    string `json:"password" validate:"required,min=8"`
}

type VerifyPhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=9"`
	Code        string `json:"code" validate:"required,len=4,numeric"`
}

type ResendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=9"`
}

type SignInRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=9"`
	Password    string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}

type ProfileResponse struct {
	ID            string `json:"id"`
	PhoneNumber   string `json:"phoneNumber"`
	PhoneVerified bool   `json:"phoneVerified"`
}
