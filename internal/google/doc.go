// Package google manages OAuth2 credentials for Google Workspace admin
// accounts.
//
// The Manager is the only component that talks to Google's token endpoint.
// It authorizes new accounts through the authorization-code flow, refreshes
// access tokens before they expire and revokes grants. Refreshes are
// serialized per account, so concurrent tool calls for the same admin share
// a single token request. A refresh token that Google rejects permanently
// is deleted and surfaces as a ReauthorizationRequired failure.
//
// Tool handlers never see refresh tokens: they receive a Credential holding
// only the access token and the scopes granted to it.
package google
