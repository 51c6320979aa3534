// Package audio plays a sound when a toast is shown.
// It uses the beep library to play WAV, OGG and MP3 files
// with volume control and one sound per toast style.
package audio
