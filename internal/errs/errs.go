// Package errs defines the error types the gateway turns into responses.
//
// Its purpose is to keep every failure path on one of a few known shapes..
// (FieldErrors for rejected input, HTTPError for everything else)..
// so the client always receives a consistent JSON envelope.
package errs
