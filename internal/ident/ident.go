package ident

import (
	"encoding/base32"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// randomLen is the number of random characters appended to a short id.
const randomLen = 9

// New returns a short collision-resistant id for sessions and clicks:
// base-36 millisecond timestamp, a dash, then random base-32 characters.
func New() string {
	return NewAt(time.Now())
}

// NewAt is New with an explicit clock reading.
func NewAt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 36) + "-" + random()[:randomLen]
}

// DeviceID returns a fresh device identifier. It is generated once per device
// and persisted by the local store.
func DeviceID() string {
	return "device-" + random()
}

func random() string {
	u := uuid.New()
	return strings.ToLower(encoding.EncodeToString(u[:]))
}
