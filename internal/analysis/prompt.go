package analysis

import "fmt"

// buildGroundedPrompt asks for live figures via search and spells out the
// JSON shape in prose, since a response schema cannot be combined with tools.
func buildGroundedPrompt(ticker string) string {
	return fmt.Sprintf(`Analyze the ETF ticker: %s.
Use Google Search to find current price, top 5 holdings, and returns (YTD, 3m, 6m, 1y).

Return ONLY a raw JSON object (no markdown, no code blocks) matching this structure:
{
  "ticker": string,
  "summary": string,
  "sector": string,
  "currentPrice": string,
  "performance": { "ytd": string, "threeMonth": string, "sixMonth": string, "oneYear": string },
  "holdings": [{ "name": string, "percentage": string }],
  "alternatives": [{ "ticker": string, "price": string }]
}`, ticker)
}

// buildSchemaPrompt relies on the declared output schema for the shape.
func buildSchemaPrompt(ticker string) string {
	return fmt.Sprintf(`Analyze the ETF ticker: %s.
Provide a short summary of the fund, its sector, its current price, its returns
(YTD, 3 months, 6 months, 1 year) as signed percentages, its top 5 holdings with
their weights, and 3 comparable alternative funds with their prices.
Express every number as a string, e.g. "$512.30" or "+8.2%%".`, ticker)
}
