// Package dbus exposes the toast engine on the session bus and connects it to
// other bus services.
//
// ToastServer implements the io.github.jmylchreest.Toaster interface used by
// the toast CLI through Client. OSKWatcher follows the on-screen keyboard's
// visibility and turns it into obstruction events. Monitor passively observes
// org.freedesktop.Notifications Notify calls so toastd can mirror them.
package dbus
