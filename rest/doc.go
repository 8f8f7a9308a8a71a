// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest builds typed JSON operations into an OpenAPI described [http.Handler].
//
// Operations are RPC style: a [Handler] receives a decoded request and returns
// a response or an error. Errors are rendered as RFC 7807 Problem Details by
// [ProblemDetailsErrorHandler] unless another [ErrorHandler] is given with
// [OnError].
//
// Every [Api] also serves:
//   - GET /openapi.json with the OpenAPI 3.0 document of its operations
//   - GET /health/liveness and GET /health/readiness backed by [health.Monitor]s
package rest
