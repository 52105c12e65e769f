package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// EncodeToken serializes a capability into the opaque token string carried in
// HTTP headers: base64url-encoded JSON.
func EncodeToken(c Capability) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", apperrors.Wrap(err, "encode capability")
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeToken parses a capability token. Two encodings are accepted,
// distinguished by whether the trimmed payload starts with "{": raw JSON for
// local debugging, or base64url JSON with or without padding. Failures are
// malformed input, never a panic.
func DecodeToken(raw string) (Capability, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return Capability{}, apperrors.Wrap(apperrors.ErrInvalidInput, "empty capability token")
	}

	payload := []byte(token)
	if !strings.HasPrefix(token, "{") {
		if missing := len(token) % 4; missing != 0 {
			token += strings.Repeat("=", 4-missing)
		}
		decoded, err := base64.URLEncoding.DecodeString(token)
		if err != nil {
			return Capability{}, apperrors.Wrap(
				apperrors.ErrInvalidInput,
				fmt.Sprintf("decode capability token: %v", err),
			)
		}
		payload = decoded
	}

	var c Capability
	if err := json.Unmarshal(payload, &c); err != nil {
		return Capability{}, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			fmt.Sprintf("parse capability token: %v", err),
		)
	}
	if _, err := ParseAction(string(c.Action)); err != nil {
		return Capability{}, err
	}
	return c, nil
}
