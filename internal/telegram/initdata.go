package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidInitData means the payload failed signature verification or
	// was structurally broken.
	ErrInvalidInitData = errors.New("telegram: invalid init data")
	// ErrExpiredInitData means the signature was valid but too old.
	ErrExpiredInitData = errors.New("telegram: init data expired")
)

// User is the Mini App user block carried inside initData.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Language  string `json:"language_code,omitempty"`
}

// InitData is the verified subset of a Mini App launch payload.
type InitData struct {
	User     User
	AuthDate time.Time
	QueryID  string
}

// VerifyInitData checks the HMAC signature of a raw initData string against
// the bot token and returns the parsed payload. maxAge bounds how old the
// auth_date may be; zero disables the age check.
func VerifyInitData(raw, botToken string, maxAge time.Duration) (InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return InitData{}, fmt.Errorf("%w: malformed query", ErrInvalidInitData)
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return InitData{}, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(gotHash)) {
		return InitData{}, fmt.Errorf("%w: signature mismatch", ErrInvalidInitData)
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return InitData{}, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && time.Since(authDate) > maxAge {
		return InitData{}, ErrExpiredInitData
	}

	var user User
	if rawUser := values.Get("user"); rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return InitData{}, fmt.Errorf("%w: bad user payload", ErrInvalidInitData)
		}
	}
	if user.ID == 0 {
		return InitData{}, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}

	return InitData{
		User:     user,
		AuthDate: authDate,
		QueryID:  values.Get("query_id"),
	}, nil
}

// SignInitData produces a valid initData string for the given values. Used by
// tests and local tooling.
func SignInitData(values url.Values, botToken string) string {
	values.Del("hash")
	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}
