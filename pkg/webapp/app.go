// Package webapp wires discovered controllers, CLI commands and services into an
// application, the way a web framework extension registers blueprints on startup.
//
// The conventions, relative to the application import path "<p>":
//
//   - "<p>.*.models" and everything below: imported for their registration side effects.
//   - "<p>.*.controllers" and below: every [router.Controller] member is registered.
//   - "<p>.*.cli" and below: every *cli.Command member is added to the application commands.
//   - "<p>.services": every member with an InitApp method is initialized with the app.
package webapp

import (
	"context"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/urfave/cli/v2"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/log"
	"github.com/deescovery/deescovery/pkg/webapp/router"
)

// Service is a member of a services module that needs the application to initialize.
type Service interface {
	InitApp(app *App) error
}

// App collects what discovery registers.
type App struct {
	Router   *router.Router
	logger   log.Logger
	Name     string
	Commands []*cli.Command
	Services []Service
}

// New creates an application with an empty router.
func New(name string, l log.Logger) *App {
	l = log.OrDiscard(l)

	rootRouter := router.New()
	rootRouter.Use(router.Recover(l))

	return &App{
		Name:   name,
		Router: rootRouter,
		logger: l,
	}
}

// RegisterController registers the routes of a router.Controller.
func (app *App) RegisterController(_ context.Context, obj any) error {
	controller, ok := obj.(router.Controller)
	if !ok {
		return errors.Errorf("%T is not a controller", obj)
	}

	app.Router.Register(controller)
	app.logger.Debugf("Registered controller %T, routes: %v", obj, app.Router.Routes())

	return nil
}

// AddCommand adds a *cli.Command (or a cli.Command value) to the application commands.
func (app *App) AddCommand(_ context.Context, obj any) error {
	switch cmd := obj.(type) {
	case *cli.Command:
		app.Commands = append(app.Commands, cmd)
	case cli.Command:
		app.Commands = append(app.Commands, &cmd)
	default:
		return errors.Errorf("%T is not a command", obj)
	}

	return nil
}

// InitService calls InitApp on a Service and keeps it in the service list.
func (app *App) InitService(_ context.Context, obj any) error {
	service, ok := obj.(Service)
	if !ok {
		return errors.Errorf("%T has an InitApp method with an unexpected signature", obj)
	}

	if err := service.InitApp(app); err != nil {
		return err
	}

	app.Services = append(app.Services, service)

	return nil
}

// Handler returns the HTTP handler serving the registered controllers. Responses are
// gzip-compressed for clients that accept it.
func (app *App) Handler() http.Handler {
	return gziphandler.GzipHandler(app.Router.Echo)
}

// CLI returns a command line application running the registered commands.
func (app *App) CLI() *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = app.Name
	cliApp.Commands = app.Commands

	return cliApp
}
