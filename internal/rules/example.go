package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"itch-rewards/internal/model"
)

// ErrConfigExists is returned by WriteExample when the target file is present.
var ErrConfigExists = errors.New("rule file already exists")

const exampleHeader = `# Reward rules per game. A game with reward_by_tip, reward_by_purchase
# and minimum_available all at 0 is skipped. Set reward_id to the reward
# to recalculate before enabling a game.`

// exampleRule is the zeroed rule written for every product.
type exampleRule struct {
	ID                  string `yaml:"id"`
	RewardID            int64  `yaml:"reward_id"`
	RewardByTip         int64  `yaml:"reward_by_tip"`
	RewardByPurchase    int64  `yaml:"reward_by_purchase"`
	MinimumAvailable    int64  `yaml:"minimum_available"`
	RewardOffset        int64  `yaml:"reward_offset"`
	DescriptionTemplate string `yaml:"reward_description_template"`
}

// Example renders a rule document with one disabled rule per product,
// in the order the products are given.
func Example(products []model.Product) ([]byte, error) {
	games := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range products {
		var value yaml.Node
		if err := value.Encode(exampleRule{ID: p.ID}); err != nil {
			return nil, fmt.Errorf("encoding rule for %q: %w", p.Name, err)
		}
		games.Content = append(games.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Name},
			&value,
		)
	}

	root := &yaml.Node{
		Kind:        yaml.MappingNode,
		HeadComment: exampleHeader,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: rulesKey},
			games,
		},
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encoding rule file: %w", err)
	}
	return data, nil
}

// WriteExample creates a rule file at path listing every product with a
// disabled rule. An existing file is never overwritten.
func WriteExample(path string, products []model.Product) error {
	data, err := Example(products)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return fmt.Errorf("failed to create rule file %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write rule file %s: %w", path, err)
	}
	return f.Close()
}
