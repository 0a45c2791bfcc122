package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// errInvalidInitData covers every way an initData payload can fail
// verification. Callers report 401 without detail.
var errInvalidInitData = errors.New("invalid init data")

// WebAppUser is the authenticated Telegram identity carried inside a WebApp
// initData payload.
type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName renders the attribution name used across the tracker:
// the @username when present, otherwise the full name, otherwise the bare id.
func (u *WebAppUser) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return fmt.Sprintf("id:%d", u.ID)
}

// verifyInitData checks a Telegram WebApp initData string against the bot
// token and returns the embedded user.
//
// Per the Telegram WebApp contract: the secret key is HMAC-SHA256 of the bot
// token keyed with the literal "WebAppData"; the data-check string is every
// field except hash, sorted by key, joined as "k=v" lines; the payload is
// valid when HMAC-SHA256 of the check string under the secret key equals the
// hash field.
func verifyInitData(botToken, initData string) (*WebAppUser, error) {
	if botToken == "" {
		return nil, errors.New("bot token not configured")
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, errInvalidInitData
	}
	receivedHash := values.Get("hash")
	if receivedHash == "" {
		return nil, errInvalidInitData
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	checkString := strings.Join(pairs, "\n")

	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	computed := hex.EncodeToString(hmacSHA256(secret, []byte(checkString)))
	if !hmac.Equal([]byte(computed), []byte(receivedHash)) {
		return nil, errInvalidInitData
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		return nil, errInvalidInitData
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return nil, errInvalidInitData
	}
	if user.ID == 0 {
		return nil, errInvalidInitData
	}
	return &user, nil
}

func hmacSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
