// Package replay provides duplicate-activity detection using a time-based
// cache so a redelivered activity is processed at most once per conversation.
package replay
