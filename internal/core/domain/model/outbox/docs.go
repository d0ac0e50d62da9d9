// Package outbox holds the transactional outbox message.
//
// Every accepted lifecycle action stores its events as outbox messages in the
// same transaction as the state change. A relay job publishes pending messages
// afterwards and retries failures on an exponential schedule, so notification
// delivery never blocks or rolls back a transition.
package outbox
