// Package display provides the status sink: the short-text surface the
// provisioning pipeline reports progress on.
//
// Two sinks are provided. LogSink routes status lines through the
// structured logger for headless runs. Panel emulates the device's 128x32
// OLED in the terminal with a bordered, centered viewport and a spinner
// while a connection attempt is in flight.
//
// A sink that fails to initialize is a fatal boot condition: the sink is
// the only feedback channel available before the device has networking, so
// the serve command halts rather than booting without one.
package display
