package redis

import (
	"fmt"

	"github.com/mcoot/idgateway/internal/model"
)

// Key prefix for all gateway data
const keyPrefix = "idgw"

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// pendingAuthKey returns the Redis key for a PendingAuth
func pendingAuthKey(state string) string {
	return fmt.Sprintf("%s:pending_auth:%s", keyPrefix, state)
}
