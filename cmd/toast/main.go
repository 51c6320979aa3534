// Package main is the toast command line client.
package main

func main() {
	Execute()
}
