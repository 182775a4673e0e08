// Package client implements the browser-facing core of the job aggregator
// frontend: credential storage, session lifecycle with automatic expiry
// logout, and the request gateway used by every page to reach the backend
// API.
package client
