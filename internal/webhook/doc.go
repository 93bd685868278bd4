// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package webhook is the HTTP client for the agent webhook.
//
// One call to Send is one POST with a {"message": ...} JSON body. The reply
// text is pulled out of the response by ExtractReply, which tries the
// "saída" field, then "output", then falls back to the compact JSON of the
// whole response.
//
// Failures are reported as *ClientError values classified by Kind:
//
//	KindTransport  the request never produced an HTTP response
//	KindProtocol   the response status was not 2xx
//	KindContent    the body could not be decoded or carried no reply
package webhook
