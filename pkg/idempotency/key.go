// Package idempotency derives stable composite keys from semantic fields.
// Keys are the conflict target of every upsert, so repeated collection passes
// over the same data converge on the same rows.
package idempotency

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const separator = "|"

var escaper = strings.NewReplacer(`\`, `\\`, separator, `\`+separator)

// Key joins the normalized fields in order. Nil and absent values become "".
func Key(fields ...interface{}) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = escaper.Replace(normalize(f))
	}
	return strings.Join(parts, separator)
}

// GameKey is the key of a game row
func GameKey(externalID string) string {
	return Key("game", externalID)
}

// OddsQuoteKey is the key of a (game, market, book) quote row
func OddsQuoteKey(gameID, market, sportsbook string) string {
	return Key("odds", gameID, market, sportsbook)
}

// PlayerPropKey is the key of a (game, player, prop type, book, line, alternate) prop row
func PlayerPropKey(gameID, player, propType, sportsbook string, line decimal.Decimal, alternate bool) string {
	return Key("prop", gameID, player, propType, sportsbook, line, alternate)
}

func normalize(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(t))
	case *string:
		if t == nil {
			return ""
		}
		return normalize(*t)
	case decimal.Decimal:
		return t.String()
	case *decimal.Decimal:
		if t == nil {
			return ""
		}
		return t.String()
	case decimal.NullDecimal:
		if !t.Valid {
			return ""
		}
		return t.Decimal.String()
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case *int:
		if t == nil {
			return ""
		}
		return strconv.Itoa(*t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return decimal.NewFromFloat(t).String()
	case *float64:
		if t == nil {
			return ""
		}
		return decimal.NewFromFloat(*t).String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return strings.ToLower(strings.TrimSpace(s.String()))
	}
	return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
}
