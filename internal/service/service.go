// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs the
// upstream call through the repository, and translates the
// upstream answer into the gateway's response shapes
package service
