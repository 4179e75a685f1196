// Package repository handles all interactions with the upstream post service.
//
// It knows the upstream's REST paths and methods, abstracting them away from
// the service layer. It does not interpret status codes.
package repository
