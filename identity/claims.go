package identity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token fields the session relies on. The signature is not
// verified here; the attendance server does that.
type Claims struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Raw       map[string]any
}

// ParseClaims reads the payload of an ID token. It fails for tokens that are
// not JWTs and for tokens whose exp or iat claims are not numeric dates.
func ParseClaims(idToken string) (Claims, error) {
	payload := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(idToken), payload); err != nil {
		return Claims{}, fmt.Errorf("identity: parse id_token: %w", err)
	}
	expiresAt, err := payload.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("identity: parse id_token: %w", err)
	}
	issuedAt, err := payload.GetIssuedAt()
	if err != nil {
		return Claims{}, fmt.Errorf("identity: parse id_token: %w", err)
	}
	userID := strings.TrimSpace(readString(payload["user_id"]))
	if userID == "" {
		subject, _ := payload.GetSubject()
		userID = strings.TrimSpace(subject)
	}
	return Claims{
		UserID:    userID,
		Email:     strings.TrimSpace(readString(payload["email"])),
		Name:      strings.TrimSpace(readString(payload["name"])),
		ExpiresAt: numericTime(expiresAt),
		IssuedAt:  numericTime(issuedAt),
		Raw:       payload,
	}, nil
}

// fillFromClaims completes credentials with values the provider response left
// out. Opaque tokens are returned unchanged.
func fillFromClaims(creds Credentials) Credentials {
	claims, err := ParseClaims(creds.IDToken)
	if err != nil {
		return creds
	}
	if creds.Account.UID == "" {
		creds.Account.UID = claims.UserID
	}
	if creds.Account.Email == "" {
		creds.Account.Email = claims.Email
	}
	if creds.Account.DisplayName == "" {
		creds.Account.DisplayName = claims.Name
	}
	if creds.ExpiresAt.IsZero() {
		creds.ExpiresAt = claims.ExpiresAt
	}
	return creds
}

func readString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func numericTime(date *jwt.NumericDate) time.Time {
	if date == nil || date.Unix() <= 0 {
		return time.Time{}
	}
	return date.UTC()
}
