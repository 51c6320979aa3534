// Package obstruction tracks the height of an on-screen overlay, typically a
// virtual keyboard, that covers the bottom edge of the display.
//
// The Tracker keeps the last known height and republishes every change to its
// subscribers. Delivery is "most recent wins": a subscriber that falls behind
// only ever sees the newest height, and a slow subscriber never blocks the
// publisher.
//
// Sources feed the tracker either by calling WillShow/WillHide directly or by
// pumping a channel of Events through Run. The D-Bus on-screen keyboard watcher
// and the terminal host keyboard toggle are the two sources in this module.
package obstruction
