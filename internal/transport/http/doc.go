// Package http contains the chi HTTP handlers for the analytics API:
// retail quality and pricing queries, churn feature queries, pipeline run
// control and health checks. Handlers translate query strings into service
// queries and render service errors as RFC 7807 problem details.
package http
