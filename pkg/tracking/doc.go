/*
Package tracking delivers analytics events without ever holding up the
funnel.

A Dispatcher accepts events, queues them and hands them to an emitter on a
background goroutine. Emitters (Pixel, Log, Multi) may be slow or fail; a
full queue drops events and a failing emitter is logged at debug level.
Masked wraps an emitter and blanks contact details before they leave the
process.
*/
package tracking
