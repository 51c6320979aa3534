// Package daemon provides the main orchestration for toastd.
// It connects the toast center to the D-Bus service, audio playback,
// notification mirroring and configuration hot-reload.
package daemon
