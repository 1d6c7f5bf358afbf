// Package rules loads the human-edited reward rule file.
// The file is a YAML document with a top-level "games" mapping of
// product name to rule object. Key order is preserved so that runs
// over the same file are reproducible.
package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"itch-rewards/internal/model"
)

// DefaultPath is the conventional rule file name.
const DefaultPath = "itch-reward-config.yml"

// rulesKey is the top-level mapping holding the per-product rules.
const rulesKey = "games"

// Rule loading errors.
var (
	ErrConfigNotFound = errors.New("rule file does not exist")
	ErrInvalidConfig  = errors.New("rule file is not valid yaml")
	ErrNoRules        = errors.New("no games configured for rewards updates in rule file")
	ErrInvalidRule    = errors.New("invalid reward rule")
)

// Field names of a rule object.
const (
	fieldID                  = "id"
	fieldRewardID            = "reward_id"
	fieldRewardByTip         = "reward_by_tip"
	fieldRewardByPurchase    = "reward_by_purchase"
	fieldMinimumAvailable    = "minimum_available"
	fieldRewardOffset        = "reward_offset"
	fieldDescriptionTemplate = "reward_description_template"
)

// LoadFile reads and parses the rule file at path.
func LoadFile(path string) ([]model.RewardRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Parse decodes a rule document into typed rules, in declaration order.
func Parse(data []byte) ([]model.RewardRule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	root := documentRoot(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, ErrNoRules
	}

	games := mappingValue(root, rulesKey)
	if games == nil || games.Kind != yaml.MappingNode {
		return nil, ErrNoRules
	}

	rules := make([]model.RewardRule, 0, len(games.Content)/2)
	for i := 0; i+1 < len(games.Content); i += 2 {
		name := strings.TrimSpace(games.Content[i].Value)

		var raw map[string]any
		if err := games.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRule, name, err)
		}

		rule, err := parseRule(name, raw)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// parseRule converts the loosely typed rule object into a RewardRule.
// Numeric fields may arrive as YAML numbers or as text.
func parseRule(name string, raw map[string]any) (model.RewardRule, error) {
	invalid := func(field string, err error) error {
		return fmt.Errorf("%w: %q: %s: %v", ErrInvalidRule, name, field, err)
	}

	rule := model.RewardRule{ProductName: name}
	var err error

	if rule.TipMultiplier, err = decimalField(raw, fieldRewardByTip); err != nil {
		return rule, invalid(fieldRewardByTip, err)
	}
	if rule.TipMultiplier.IsNegative() {
		return rule, invalid(fieldRewardByTip, errors.New("must not be negative"))
	}

	if rule.PurchaseIncrement, err = decimalField(raw, fieldRewardByPurchase); err != nil {
		return rule, invalid(fieldRewardByPurchase, err)
	}

	if rule.BaselineOffset, err = decimalField(raw, fieldRewardOffset); err != nil {
		return rule, invalid(fieldRewardOffset, err)
	}

	if v, ok := raw[fieldMinimumAvailable]; ok && v != nil {
		rule.MinimumAvailable, err = cast.ToInt64E(v)
		if err != nil {
			return rule, invalid(fieldMinimumAvailable, err)
		}
	}
	if rule.MinimumAvailable < 0 {
		return rule, invalid(fieldMinimumAvailable, errors.New("must not be negative"))
	}

	if v, ok := raw[fieldDescriptionTemplate]; ok && v != nil {
		rule.DescriptionTemplate, err = cast.ToStringE(v)
		if err != nil {
			return rule, invalid(fieldDescriptionTemplate, err)
		}
	}

	// An inactive rule is never evaluated, so its identifiers are optional.
	if !rule.Active() {
		rule.ProductID = strings.TrimSpace(cast.ToString(raw[fieldID]))
		rule.RewardID = cast.ToInt64(raw[fieldRewardID])
		return rule, nil
	}

	productID, err := cast.ToStringE(raw[fieldID])
	if err != nil {
		return rule, invalid(fieldID, err)
	}
	rule.ProductID = strings.TrimSpace(productID)
	if rule.ProductID == "" {
		return rule, invalid(fieldID, errors.New("product id is required"))
	}

	rule.RewardID, err = cast.ToInt64E(raw[fieldRewardID])
	if err != nil {
		return rule, invalid(fieldRewardID, err)
	}
	if rule.RewardID <= 0 {
		return rule, invalid(fieldRewardID, errors.New("reward id must be positive"))
	}

	return rule, nil
}

// decimalField reads an optional numeric field. Absent values are zero.
func decimalField(raw map[string]any, field string) (decimal.Decimal, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return decimal.Zero, nil
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(f), nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		return doc.Content[0]
	}
	return doc
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
