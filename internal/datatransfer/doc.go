// Package datatransfer wraps the Admin SDK Data Transfer API, which moves
// a user's application data to another user.
package datatransfer
