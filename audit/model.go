// audit/model.go
package audit

import "time"

// Index caps. Oldest entries fall off once an index is full; the entry
// bodies themselves expire independently via TTL.
const (
	recentCap   = 1000
	typeCap     = 500
	userCap     = 100
	timelineCap = 10000
)

const (
	entryTTL = 30 * 24 * time.Hour
	statsTTL = 30 * 24 * time.Hour
)
