// ABOUTME: Opaque token codec for ConversationReference values
// ABOUTME: Uses HS256-signed JWTs so tampered or foreign tokens fail to decode

package refcodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parleybot/parley/internal/activity"
)

// Codec errors
var (
	// ErrDecode means the token is malformed, was tampered with, or was not
	// produced by this codec.
	ErrDecode = errors.New("invalid reference token")

	// ErrMissingSecret means the codec was constructed without a signing secret.
	ErrMissingSecret = errors.New("signing secret is required")
)

// Codec encodes ConversationReference values into opaque signed tokens and
// back. Callers must never parse a token's internal structure; the only
// supported way back to a reference is Decode.
type Codec struct {
	secret []byte
}

// New creates a codec signing with the given secret.
func New(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &Codec{secret: secret}, nil
}

// Encode serializes a reference into an opaque token. The reference must be
// valid; Decode(Encode(ref)) returns ref unchanged.
func (c *Codec) Encode(ref activity.ConversationReference) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", fmt.Errorf("encoding reference: %w", err)
	}

	claims := jwt.MapClaims{
		"conv": ref.ConversationID,
		"svc":  ref.ServiceURL,
		"iat":  time.Now().Unix(),
	}
	if ref.ChannelID != "" {
		claims["chan"] = ref.ChannelID
	}
	if ref.Bot != "" {
		claims["bot"] = ref.Bot
	}
	if ref.User != "" {
		claims["usr"] = ref.User
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing reference token: %w", err)
	}
	return token, nil
}

// Decode verifies a token and reconstructs the reference it carries.
// Returns ErrDecode for anything this codec did not produce.
func (c *Codec) Decode(tokenString string) (activity.ConversationReference, error) {
	var ref activity.ConversationReference

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return ref, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !token.Valid {
		return ref, ErrDecode
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ref, ErrDecode
	}

	conv, _ := claims["conv"].(string)
	svc, _ := claims["svc"].(string)
	if conv == "" || svc == "" {
		return ref, fmt.Errorf("%w: missing reference claims", ErrDecode)
	}

	ref.ConversationID = conv
	ref.ServiceURL = svc
	ref.ChannelID, _ = claims["chan"].(string)
	ref.Bot, _ = claims["bot"].(string)
	ref.User, _ = claims["usr"].(string)
	return ref, nil
}
