package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
)

var (
	tokenSalt  = []byte("microlearn.core.user.password_reset")
	tokenB32   = base32.StdEncoding.WithPadding(base32.NoPadding)
	tokenEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// PasswordResetTokens makes and checks the tokens of password reset links.
// A token signs the user's password hash and last login: it stops working once the password is reset.
type PasswordResetTokens struct {
	secret  []byte
	timeout time.Duration
}

func NewPasswordResetTokens(secretKey string, timeout time.Duration) PasswordResetTokens {
	return PasswordResetTokens{secret: []byte(secretKey), timeout: timeout}
}

// EncodeUID base64 encodes the ID of `usr` for use in a reset link.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(idBytes), nil
}

// Make generates a password reset token for `usr`.
func (g PasswordResetTokens) Make(usr User) (string, error) {
	return g.makeWithTimestamp(usr, daysSinceEpoch(core.NowFunc()))
}

// Verify checks that `token` was made for `usr` and has not expired.
func (g PasswordResetTokens) Verify(usr User, token string) error {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}

	data, err := tokenB32.DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	want, err := g.makeWithTimestamp(usr, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 0 {
		return errInvalidToken
	}

	if daysSinceEpoch(core.NowFunc())-ts > int(g.timeout/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (g PasswordResetTokens) makeWithTimestamp(usr User, ts int) (string, error) {
	sig, err := g.sign(hashValue(usr, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tokenB32.EncodeToString([]byte(strconv.Itoa(ts))), sig), nil
}

func (g PasswordResetTokens) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, tokenSalt...), g.secret...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func daysSinceEpoch(t time.Time) int {
	return int(math.Ceil(t.Sub(tokenEpoch).Hours() / 24))
}

func hashValue(usr User, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(usr.ID)
	val.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		val.WriteString(strconv.FormatInt(usr.LastLogin.Unix(), 10))
	}
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
