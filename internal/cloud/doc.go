// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud talks to the remote query endpoint that answers chat turns.
//
// The exchange is a single JSON POST:
//
//	request:  {"query": "...", "conversation_id": "..."}
//	response: {"response": "...", "conversation_id": "..."}
//
// conversation_id is omitted from the request when no conversation has been
// started yet. Any non-2xx status is an error and its body is ignored.
//
// # Key Types
//
//   - Client: resty-backed client for the query endpoint
//   - QueryRequest / QueryResponse: the wire bodies
//   - NetworkError, ServerError, MalformedResponseError: failure classes
//
// # Usage
//
//	client := cloud.NewClient(cloud.Options{URL: cfg.Endpoint.URL}, logger)
//	resp, err := client.Query(ctx, cloud.QueryRequest{Query: "Hello"})
//	if err != nil {
//	    switch cloud.Kind(err) { ... }
//	}
//
// Requests are never retried.
package cloud
