// Package server exposes the assistant and the CRM tools over HTTP.
//
// Chat turns run on a per session Assistant, sessions are kept in memory
// and identified by the session_id returned in the chat response.
package server
