package atelier

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginRequest carries credentials for either sign-in flow. Password flow
// uses Identifier + Password; wallet flow uses the wallet address plus the
// signed challenge pair.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`

	WalletFlow      bool   `json:"-"`
	WalletAddress   string `json:"wallet_address,omitempty"`
	SignedMessage   string `json:"signed_message,omitempty"`
	OriginalMessage string `json:"original_message,omitempty"`
}

// Validate will run validation rules for the chosen flow
func (r LoginRequest) Validate() error {
	if r.WalletFlow {
		if r.SignedMessage == "" || r.OriginalMessage == "" {
			return ErrMissingWalletChallenge
		}
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.WalletAddress,
				validation.Required,
			),
			validation.Field(
				&r.SignedMessage,
				validation.Required,
			),
			validation.Field(
				&r.OriginalMessage,
				validation.Required,
			),
		)
	}

	if r.Password == "" {
		return ErrMissingPassword
	}

	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// SignupRequest creates and authenticates a new account in one step.
type SignupRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}
