/*
Package session serializes access to live funnel sessions.

Every read-modify-write of a session goes through Manager, which holds a
per-session mutex (reference counted, so idle sessions leave no locks
behind) and, when configured, a distributed lock shared by all replicas.
*/
package session
