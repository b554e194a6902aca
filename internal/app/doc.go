// Package app wires the application together: configuration, logging,
// session store, services, router, and the HTTP server lifecycle.
package app
