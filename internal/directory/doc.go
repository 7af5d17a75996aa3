// Package directory wraps the Admin SDK Directory API.
//
// A Client is bound to one admin credential. Methods page through list
// results up to a caller supplied cap and return flattened summaries that
// the tool handlers format. Errors are returned wrapped but unclassified so
// the dispatcher can map the underlying googleapi.Error.
package directory
