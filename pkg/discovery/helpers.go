package discovery

import (
	"context"

	"github.com/deescovery/deescovery/pkg/log"
	"github.com/deescovery/deescovery/pkg/module"
)

// ImportModule returns a ModuleAction importing the matched module, which runs its
// registration side effects. It logs through the logger carried by ctx.
func ImportModule(loader module.Loader) ModuleAction {
	return func(ctx context.Context, path string) error {
		log.LoggerFromContext(ctx).Debugf("Importing module %s", path)

		_, err := loader.Import(ctx, path)

		return err
	}
}
