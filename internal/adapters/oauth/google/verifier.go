// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type GoogleVerifier struct {
	validate validateFunc
}

func NewVerifier() ports.TokenVerifier {
	return &GoogleVerifier{validate: idtoken.Validate}
}

// Verify checks the token signature and audience and returns the account's
// email and display name. Unverified emails are rejected.
func (v *GoogleVerifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	if clientID == "" {
		return nil, errors.New("google client id is not configured")
	}

	payload, err := v.validate(ctx, token, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate id token: %w", err)
	}

	email, ok := payload.Claims["email"].(string)
	if !ok || email == "" {
		return nil, errors.New("email not found in claims")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email is not verified")
	}

	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return &ports.TokenPayload{Email: email, Name: name}, nil
}
