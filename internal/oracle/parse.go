package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const decisionSchemaJSON = `{
	"type": "object",
	"required": ["direction"],
	"properties": {
		"direction": {"type": "string", "enum": ["LONG", "SHORT", "NO_POSITION"]},
		"recommended_position_size": {"type": "number"},
		"recommended_leverage": {"type": "integer"},
		"stop_loss_percentage": {"type": "number"},
		"take_profit_percentage": {"type": "number"},
		"reasoning": {"type": "string"}
	}
}`

var decisionSchema = jsonschema.MustCompileString("decision.json", decisionSchemaJSON)

// Parse turns a raw model reply into a Decision. Any failure on the way, no
// JSON found, invalid JSON, or a field of the wrong shape, is a *ParseError
// carrying the original reply.
func Parse(raw string) (Decision, error) {
	text, ok := extractJSON(raw)
	if !ok {
		return Decision{}, &ParseError{Raw: raw, Err: fmt.Errorf("no JSON object in reply")}
	}
	if !gjson.Valid(text) {
		return Decision{}, &ParseError{Raw: raw, Err: fmt.Errorf("malformed JSON")}
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return Decision{}, &ParseError{Raw: raw, Err: err}
	}
	if err := decisionSchema.Validate(doc); err != nil {
		return Decision{}, &ParseError{Raw: raw, Err: err}
	}

	var d Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return Decision{}, &ParseError{Raw: raw, Err: err}
	}
	d.Direction = strings.ToUpper(strings.TrimSpace(d.Direction))

	if d.WantsTrade() {
		if err := checkTradeFields(d); err != nil {
			return Decision{}, &ParseError{Raw: raw, Err: err}
		}
	}
	return d, nil
}

// checkTradeFields enforces the numeric ranges a tradeable recommendation
// must stay inside.
func checkTradeFields(d Decision) error {
	switch {
	case d.PositionSizeFraction <= 0 || d.PositionSizeFraction > 1:
		return fmt.Errorf("recommended_position_size %v outside (0, 1]", d.PositionSizeFraction)
	case d.Leverage < 1:
		return fmt.Errorf("recommended_leverage %d below 1", d.Leverage)
	case d.StopLossPct <= 0 || d.StopLossPct >= 1:
		return fmt.Errorf("stop_loss_percentage %v outside (0, 1)", d.StopLossPct)
	case d.TakeProfitPct <= 0 || d.TakeProfitPct >= 1:
		return fmt.Errorf("take_profit_percentage %v outside (0, 1)", d.TakeProfitPct)
	}
	return nil
}
