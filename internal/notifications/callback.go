package notifications

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vacancyhub/internal/models"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"

	callbackPrefix = "mod"
	tokenBytes     = 12
)

var (
	ErrNotifierDisabled = errors.New("notifier disabled")
	ErrBadCallback      = errors.New("malformed callback data")
	ErrCallbackToken    = errors.New("callback token mismatch")
)

// Callback is a decoded inline-button payload.
type Callback struct {
	Action    string
	Kind      models.Kind
	PostingID uint
}

func callbackToken(secret, action string, kind models.Kind, id uint) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%d:%s", kind, id, action)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:tokenBytes])
}

// EncodeCallback builds mod:<action>:<kind>:<id>:<token>, which stays well under
// Telegram's 64-byte callback_data limit.
func EncodeCallback(secret, action string, kind models.Kind, id uint) string {
	return fmt.Sprintf("%s:%s:%s:%d:%s", callbackPrefix, action, kind, id, callbackToken(secret, action, kind, id))
}

// ParseCallback decodes data and verifies its token against secret.
func ParseCallback(secret, data string) (Callback, error) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) != 5 || parts[0] != callbackPrefix {
		return Callback{}, ErrBadCallback
	}

	action := parts[1]
	if action != ActionAccept && action != ActionReject {
		return Callback{}, ErrBadCallback
	}
	kind := models.Kind(parts[2])
	if !kind.Valid() {
		return Callback{}, ErrBadCallback
	}
	id, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil || id == 0 {
		return Callback{}, ErrBadCallback
	}

	want := callbackToken(secret, action, kind, uint(id))
	if !hmac.Equal([]byte(want), []byte(parts[4])) {
		return Callback{}, ErrCallbackToken
	}
	return Callback{Action: action, Kind: kind, PostingID: uint(id)}, nil
}
