package hclfs

import (
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/deescovery/deescovery/internal/errors"
)

// Block is a top-level (or nested) block of a module file, exposed as a module member
// named "<type>" or "<type>.<label>...".
type Block struct {
	Attrs  map[string]any
	Type   string
	Labels []string
	Blocks []*Block
}

// Name returns the member name of the block.
func (block *Block) Name() string {
	return strings.Join(append([]string{block.Type}, block.Labels...), ".")
}

// Attribute implements matcher.Attributer.
func (block *Block) Attribute(name string) (any, bool) {
	val, ok := block.Attrs[name]
	return val, ok
}

// NestedBlocks returns the nested blocks of the given type.
func (block *Block) NestedBlocks(blockType string) []*Block {
	var blocks []*Block

	for _, nested := range block.Blocks {
		if nested.Type == blockType {
			blocks = append(blocks, nested)
		}
	}

	return blocks
}

// Decode decodes the block attributes into target, a pointer to a struct or map.
// Struct fields are matched by their `hcl` tag, or by name when untagged.
func (block *Block) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "hcl",
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.New(err)
	}

	if err := decoder.Decode(block.Attrs); err != nil {
		return errors.Errorf("decoding block %s: %w", block.Name(), err)
	}

	return nil
}
