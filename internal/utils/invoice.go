package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Document reference prefixes. Orders stamp an INV number on their invoice
// projection; approved cashouts carry a PAY reference on the payout record.
const (
	RefPrefixInvoice = "INV"
	RefPrefixPayout  = "PAY"
)

// GenerateDocumentRef builds a reference like INV-20260830-154501-042-8317:
// UTC date and time, the millisecond component and a 4-digit random suffix.
func GenerateDocumentRef(prefix string) string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"%s-%s-%03d-%04d",
		prefix,
		datePart,
		millis,
		n.Int64(),
	)
}
