// Package publish mirrors committed provenance events to a message bus.
//
// Publishing happens after the store transaction commits. A failed publish
// never undoes a commit; callers log the error and move on.
package publish
