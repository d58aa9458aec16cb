package model

import "github.com/shopspring/decimal"

// TVARate is the fixed French VAT rate applied per line item. Catalog
// prices are TTC; the HT/TVA breakdown is derived from them.
var TVARate = decimal.NewFromFloat(0.20)

// HTFromTTC derives the pre-tax amount from a tax-inclusive amount,
// rounded to cents.
func HTFromTTC(ttc decimal.Decimal) decimal.Decimal {
	return ttc.Div(decimal.NewFromInt(1).Add(TVARate)).Round(2)
}

// TVAFromTTC derives the tax portion of a tax-inclusive amount.
func TVAFromTTC(ttc decimal.Decimal) decimal.Decimal {
	return ttc.Sub(HTFromTTC(ttc))
}
