package llm

// SchemaType is the JSON type of a schema node.
type SchemaType string

const (
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
	TypeString SchemaType = "string"
)

// Schema is a minimal, provider-neutral JSON schema. Each provider translates
// it into its own representation.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	// Order lists property names in the order they should be emitted.
	Order    []string
	Required []string
	Items    *Schema
}

// ToMap renders the schema as a JSON-schema map, the form accepted by
// Claude tool inputs and OpenAI strict response formats. Strict mode needs
// every object closed, so objects carry additionalProperties: false.
func (s *Schema) ToMap() map[string]any {
	m := map[string]any{"type": string(s.Type)}
	if s.Type == TypeObject {
		m["additionalProperties"] = false
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.ToMap()
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	if s.Items != nil {
		m["items"] = s.Items.ToMap()
	}
	return m
}

func str(desc string) *Schema {
	return &Schema{Type: TypeString, Description: desc}
}

// ETFSchema declares the ETFData shape. All numeric-looking values are strings.
func ETFSchema() *Schema {
	performance := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"ytd":        str("Year-to-date return, signed percentage, e.g. +8.2%"),
			"threeMonth": str("Three month return, signed percentage"),
			"sixMonth":   str("Six month return, signed percentage"),
			"oneYear":    str("One year return, signed percentage"),
		},
		Order:    []string{"ytd", "threeMonth", "sixMonth", "oneYear"},
		Required: []string{"ytd", "threeMonth", "sixMonth", "oneYear"},
	}
	holding := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"name":       str("Holding name"),
			"percentage": str("Portfolio weight, e.g. 7.1%"),
		},
		Order:    []string{"name", "percentage"},
		Required: []string{"name", "percentage"},
	}
	alternative := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"ticker": str("Ticker of a comparable fund"),
			"price":  str("Current price with currency prefix"),
		},
		Order:    []string{"ticker", "price"},
		Required: []string{"ticker", "price"},
	}

	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"ticker":       str("Fund ticker symbol"),
			"summary":      str("Short description of the fund and its strategy"),
			"sector":       str("Sector or category label"),
			"currentPrice": str("Current price with currency prefix, e.g. $512.30"),
			"performance":  performance,
			"holdings":     {Type: TypeArray, Description: "Top 5 holdings", Items: holding},
			"alternatives": {Type: TypeArray, Description: "Comparable funds", Items: alternative},
		},
		Order: []string{"ticker", "summary", "sector", "currentPrice", "performance", "holdings", "alternatives"},
		Required: []string{
			"ticker", "summary", "sector", "currentPrice", "performance", "holdings", "alternatives",
		},
	}
}
