package shared

import (
	"crypto/sha256"
	"encoding/base64"
)

func BodySHA256(body []byte) string {
	h := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(h[:])
}
