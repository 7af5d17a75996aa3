// Package common provides helpers shared by the admin tool packages:
// schema options for the arguments every tool accepts, argument validators
// and API call instrumentation.
package common
