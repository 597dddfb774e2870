// cache/keys.go
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Cache namespaces. A key uniquely determines one semantic query result.
const (
	nsTokenBasic    = "auth:token:basic:"
	nsTokenEnriched = "auth:token:enriched:"
	nsUserInfo      = "auth:user:info:"
	nsUserRoles     = "auth:user:roles:"
	nsDecision      = "authz:decision:"
)

// HashToken computes a short non-cryptographic rolling hash of the raw
// token. Token-keyed entries can only be invalidated through this hash or
// by TTL expiry; there is no reverse index from user to token hashes.
func HashToken(token string) string {
	var hash int32
	for _, ch := range token {
		hash = (hash << 5) - hash + int32(ch)
	}
	return fmt.Sprintf("%x", uint32(hash))
}

func TokenKey(token string) string {
	return nsTokenBasic + HashToken(token)
}

func EnrichedTokenKey(token string) string {
	return nsTokenEnriched + HashToken(token)
}

func UserInfoKey(userID string) string {
	return nsUserInfo + userID
}

func UserRolesKey(userID string) string {
	return nsUserRoles + userID
}

// decisionDigestInput fixes the field order of the decision digest so that
// identical inputs always produce the identical key, regardless of how the
// caller assembled them.
type decisionDigestInput struct {
	UserID       string `json:"userId"`
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType"`
	Action       string `json:"action"`
}

// DecisionKey embeds the user id in clear so per-user invalidation can
// match decision entries by pattern; the digest disambiguates the rest of
// the tuple.
func DecisionKey(userID, resourceID, resourceType, action string) string {
	data, _ := json.Marshal(decisionDigestInput{
		UserID:       userID,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Action:       action,
	})
	digest := md5.Sum(data)
	return nsDecision + userID + ":" + hex.EncodeToString(digest[:])
}

// UserPatterns returns the match patterns covering every user-addressable
// namespace for invalidation. Token-keyed namespaces are deliberately
// absent.
func UserPatterns(userID string) []string {
	return []string{
		nsUserInfo + userID,
		nsUserRoles + userID,
		nsDecision + userID + ":*",
	}
}

// Per-namespace TTLs, each falling back to the process-wide default.
func ttl(key string) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return viper.GetDuration("redis.defaultCacheTTL")
}

func TokenTTL() time.Duration    { return ttl("cache.tokenTTL") }
func UserTTL() time.Duration     { return ttl("cache.userTTL") }
func RolesTTL() time.Duration    { return ttl("cache.rolesTTL") }
func DecisionTTL() time.Duration { return ttl("cache.decisionTTL") }
