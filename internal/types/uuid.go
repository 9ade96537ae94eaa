package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix, e.g. subs_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a human-friendly short ID with a prefix,
// capped at 12 characters, e.g. PO-X4QZ8A. Used for customer-facing numbers.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	availableLen := 12 - len(prefix)
	if availableLen <= 0 {
		return ""
	}

	if len(id) > availableLen {
		id = id[:availableLen]
	}

	return strings.ToUpper(fmt.Sprintf("%s%s", prefix, id))
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_LEDGER_ACCOUNT     = "acct"
	UUID_PREFIX_LEDGER_TRANSACTION = "ltxn"
	UUID_PREFIX_LEDGER_ENTRY       = "lent"
	UUID_PREFIX_USAGE_CREDIT       = "cred"
	UUID_PREFIX_USAGE_EVENT        = "usage"
	UUID_PREFIX_USAGE_METER        = "meter"
	UUID_PREFIX_SUBSCRIPTION       = "subs"
	UUID_PREFIX_CUSTOMER           = "cust"
	UUID_PREFIX_ORGANIZATION       = "org"
	UUID_PREFIX_PRICE              = "price"
	UUID_PREFIX_PRODUCT            = "prod"
	UUID_PREFIX_PURCHASE           = "purch"
	UUID_PREFIX_PAYMENT_METHOD     = "pm"
	UUID_PREFIX_CHECKOUT_SESSION   = "cs"
	UUID_PREFIX_BILLING_RUN        = "brun"
	UUID_PREFIX_WEBHOOK_EVENT      = "webhook"
)

const (
	SHORT_ID_PREFIX_PURCHASE = "PO-"
)
