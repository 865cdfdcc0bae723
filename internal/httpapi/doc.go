// Package httpapi serves the ambient actions over HTTP with gin.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/ambient/turn_on   action parameters -> ambient.Outcome
//	POST /v1/ambient/extract   action parameters -> ambient.Result
//	POST /v1/ambient/preview   action parameters -> imaging.PreviewResult (?scale=)
//	GET  /v1/lights/ws         light controller WebSocket, when configured
//
// Failures are returned as {"error": "...", "kind": "..."} with a status
// derived from the error kind.
package httpapi
