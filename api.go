package atelier

import (
	"context"
	"net/http"
)

// Backend endpoints consumed by the session core. The server owns token
// issuance; the client treats every token as opaque.
const (
	routeMe           = "/auth/me"
	routeSignIn       = "/auth/signin"
	routeSignInWallet = "/auth/signin/wallet"
	routeSignUp       = "/auth/signup"
)

type tokenEnvelope struct {
	Token string `json:"token"`
}

// authEnvelope is the response shape shared by signin and signup.
type authEnvelope struct {
	Token tokenEnvelope `json:"token"`
	Data  *UserSummary  `json:"data"`
}

type meEnvelope struct {
	Data *UserSummary `json:"data"`
}

type walletSignInPayload struct {
	WalletAddress   string `json:"walletAddress"`
	SignedMessage   string `json:"signedMessage"`
	OriginalMessage string `json:"originalMessage"`
}

type passwordSignInPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type signUpPayload struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// resolveIdentity asks the backend who the token belongs to.
func resolveIdentity(ctx context.Context, c *Client, token string) (*UserSummary, error) {
	envelope, err := Get[meEnvelope](ctx, c, routeMe, WithToken(token))
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// signIn exchanges credentials for a token and identity snapshot.
func signIn(ctx context.Context, c *Client, req LoginRequest) (string, *UserSummary, error) {
	var (
		envelope authEnvelope
		err      error
	)

	if req.WalletFlow {
		envelope, err = Post[authEnvelope](ctx, c, routeSignInWallet, WithBody(walletSignInPayload{
			WalletAddress:   req.WalletAddress,
			SignedMessage:   req.SignedMessage,
			OriginalMessage: req.OriginalMessage,
		}))
	} else {
		envelope, err = Post[authEnvelope](ctx, c, routeSignIn, WithBody(passwordSignInPayload{
			Identifier: req.Identifier,
			Password:   req.Password,
		}))
	}

	if err != nil {
		return "", nil, err
	}

	return envelope.Token.Token, envelope.Data, nil
}

// signUp registers and authenticates an account in one call.
func signUp(ctx context.Context, c *Client, req SignupRequest) (string, *UserSummary, error) {
	envelope, err := Post[authEnvelope](ctx, c, routeSignUp, WithBody(signUpPayload{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		WalletAddress: req.WalletAddress,
	}))
	if err != nil {
		return "", nil, err
	}

	return envelope.Token.Token, envelope.Data, nil
}

// incompleteAuthResponse guards against a 2xx body missing token or user;
// treated as a client-tier decode failure so the session never half-applies.
func incompleteAuthResponse(status int) *APIError {
	if status == 0 {
		status = http.StatusOK
	}
	return &APIError{
		Message: "authentication response missing token or user",
		Status:  status,
	}
}
