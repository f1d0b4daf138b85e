// Package leads handles the ZIP code form that starts a quote.
package leads

import (
	"errors"
	"net/url"
	"strings"
)

// InvalidZIPMessage is shown next to the form when the ZIP is rejected
const InvalidZIPMessage = "Please enter a valid 5-digit ZIP Code."

var ErrInvalidZIP = errors.New("invalid ZIP code: need 5 digits")

const zipLength = 5

// NormalizeZIP keeps the digits of raw and takes the first five. Input with
// fewer than five digits is rejected.
func NormalizeZIP(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == zipLength {
				return b.String(), nil
			}
		}
	}
	return "", ErrInvalidZIP
}

// QuoteURL is where a valid ZIP is sent: {quotesPath}?zip=NNNNN
func QuoteURL(quotesPath, zip string) string {
	sep := "?"
	if strings.Contains(quotesPath, "?") {
		sep = "&"
	}
	return quotesPath + sep + "zip=" + url.QueryEscape(zip)
}
