package router

// Controller is implemented by the HTTP controllers found in "controllers" modules.
type Controller interface {
	// Register is the method called by the router, passing the router
	// groups to let the controller register its methods
	Register(router *Router)
}
