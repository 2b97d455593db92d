package database

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var passwordRegex = regexp.MustCompile(`(password=)([^\s&]+)`)

// NormalizeDSN trims the DSN and fills sslmode and connect_timeout when the
// caller did not set them. Both URL and key=value forms are accepted.
func NormalizeDSN(raw string, production bool, connectTimeout time.Duration) string {
	dsn := strings.Trim(strings.TrimSpace(raw), "\"'")
	if dsn == "" {
		return dsn
	}

	sslMode := "disable"
	if production {
		sslMode = "require"
	}

	params := map[string]string{"sslmode": sslMode}
	if secs := int(connectTimeout / time.Second); secs > 0 {
		params["connect_timeout"] = strconv.Itoa(secs)
	}

	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		for k, v := range params {
			if !q.Has(k) {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	cleaned := strings.Join(strings.Fields(dsn), " ")
	for _, k := range []string{"sslmode", "connect_timeout"} {
		v, ok := params[k]
		if ok && !strings.Contains(strings.ToLower(cleaned), k+"=") {
			cleaned += " " + k + "=" + v
		}
	}
	return cleaned
}

// MaskDSN hides the password of a DSN for logging. URL passwords are
// replaced the way net/url redacts them.
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	return passwordRegex.ReplaceAllString(dsn, "${1}***")
}
