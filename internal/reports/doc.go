// Package reports wraps the Admin SDK Reports API: per-user and per-customer
// usage reports and audit activity logs.
package reports
