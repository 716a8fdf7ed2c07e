// Package listener accepts build event streams on a TCP or unix socket.
//
// Every connection carries one build and gets its own engine.Engine, so
// concurrent builds never share correlation state. Connections are supervised
// with an errgroup; a broken stream is logged and closes only its own
// connection. A file lock keeps a second listener from binding the same
// socket.
package listener
