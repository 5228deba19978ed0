// Package fingerprint derives the content address used as the ledger's
// duplicate-detection key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Generate returns the lowercase hex SHA-256 digest of the pipe-joined
// (date, description, amount, purchasedBy) tuple. It performs no
// normalization: callers must pass consistently formatted dates and an
// empty purchasedBy when absent, or identical transactions will not
// deduplicate. Amount is the signed cent count rendered in decimal.
func Generate(transactionDate, description string, amount int64, purchasedBy string) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		transactionDate, description, strconv.FormatInt(amount, 10), purchasedBy)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
