package domain

import "golang.org/x/text/currency"

// Naira is the storefront's default currency.
var Naira = currency.MustParseISO("NGN")
