// Package state keeps the pending multi-step interactions of bot conversations.
// At most one continuation is outstanding per chat and user.
package state
