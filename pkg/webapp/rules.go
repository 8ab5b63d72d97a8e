package webapp

import (
	"context"
	"reflect"

	"github.com/urfave/cli/v2"

	"github.com/deescovery/deescovery/pkg/discovery"
	"github.com/deescovery/deescovery/pkg/log"
	"github.com/deescovery/deescovery/pkg/matcher"
	"github.com/deescovery/deescovery/pkg/module"
	"github.com/deescovery/deescovery/pkg/webapp/router"
)

// ModelsLoader imports every models module below importPath.
func ModelsLoader(importPath string, loader module.Loader) discovery.Rule {
	return &discovery.ModuleRule{
		Name:          "models loader",
		ModuleMatches: matcher.MatchByPattern(importPath+".*.models", importPath+".*.models.*"),
		ModuleAction:  discovery.ImportModule(loader),
	}
}

// ControllersLoader registers every controller found in controllers modules.
func ControllersLoader(importPath string, app *App) discovery.Rule {
	return &discovery.ObjectRule{
		Name:          "controllers loader",
		ModuleMatches: matcher.MatchByPattern(importPath+".*.controllers", importPath+".*.controllers.*"),
		ObjectMatches: matcher.MatchByType(reflect.TypeFor[router.Controller]()),
		ObjectAction:  app.RegisterController,
	}
}

// CommandsLoader adds every command found in cli modules.
func CommandsLoader(importPath string, app *App) discovery.Rule {
	return &discovery.ObjectRule{
		Name:          "commands loader",
		ModuleMatches: matcher.MatchByPattern(importPath+".*.cli", importPath+".*.cli.*"),
		ObjectMatches: matcher.MatchByType(reflect.TypeFor[cli.Command]()),
		ObjectAction:  app.AddCommand,
	}
}

// ServiceInitializer initializes every service of the top-level services module.
func ServiceInitializer(importPath string, app *App) discovery.Rule {
	return &discovery.ObjectRule{
		Name:          "service initializer",
		ModuleMatches: matcher.MatchByPattern(importPath + ".services"),
		ObjectMatches: matcher.MatchByCallableAttribute("InitApp"),
		ObjectAction:  app.InitService,
	}
}

// Rules returns the models, controllers, commands and services rules, in that order.
func Rules(importPath string, loader module.Loader, app *App) []discovery.Rule {
	return []discovery.Rule{
		ModelsLoader(importPath, loader),
		ControllersLoader(importPath, app),
		CommandsLoader(importPath, app),
		ServiceInitializer(importPath, app),
	}
}

// Discover applies Rules to the modules below importPath.
func Discover(ctx context.Context, l log.Logger, loader module.Loader, importPath string, app *App) error {
	return discovery.Discover(ctx, l, loader, importPath, Rules(importPath, loader, app))
}
