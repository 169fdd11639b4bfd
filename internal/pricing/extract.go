package pricing

import "fmt"

// extractionSystem frames the extraction role for the model.
const extractionSystem = "You are a price analyst. You extract exact subscription prices from search snippets and answer with nothing but a number."

// buildInstruction renders the fixed extraction instruction. The three rules
// are load-bearing: monthly price for the named plan only, bare numeral only,
// and the literal 0 when no confident price is present. The 0 sentinel is what
// keeps the model from fabricating an amount.
func buildInstruction(serviceName, planName, currency, context string) string {
	return fmt.Sprintf(
		"Task: from the text below, find the current MONTHLY price of the '%s' plan "+
			"of the '%s' service (or the closest matching plan name).\n"+
			"Rules:\n"+
			"1. Use only the %s price for this plan. Ignore prices of other plans, other countries, and other currencies.\n"+
			"2. Respond with the bare number only (example: 229.99). No currency symbol, no words.\n"+
			"3. If the text has no clear price for '%s', or you are not sure, respond with exactly '0'. Never guess.\n"+
			"\nTEXT:\n%s",
		planName, serviceName, currency, planName, context,
	)
}
