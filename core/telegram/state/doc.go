// Package state tracks the conversation step of each chat.
// Sessions live in process memory only and expire after a TTL.
package state
