package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// KeyPrefixRecords is the prefix for cached upstream record lists
	KeyPrefixRecords = "jobtrail:records:"
)

// RecordKey returns the Redis key holding resource records fetched with
// token on behalf of subject. Keys are per token: an entry is only served
// back to a caller presenting the exact token the remote API accepted.
func RecordKey(subject, token, resource string) string {
	return KeyPrefixRecords + subject + ":" + tokenTag(token) + ":" + resource
}

// SubjectPattern matches every record key of subject
func SubjectPattern(subject string) string {
	return KeyPrefixRecords + subject + ":*"
}

func tokenTag(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
